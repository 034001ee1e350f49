/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package queryset

import (
	"encoding/json"

	"github.com/suparena/querysets/record"
)

// Status is the closed vocabulary of data-level outcomes.
type Status string

const (
	// StatusCreated means the entity did not exist and is now stored.
	StatusCreated Status = "Created"
	// StatusUpdated means the entity existed and was overwritten or removed.
	StatusUpdated Status = "Updated"
	// StatusOK means a read found the entity.
	StatusOK Status = "OK"
	// StatusFailed means the entity did not exist.
	StatusFailed Status = "Failed"
)

// PutStatus maps the prior-existence flag of an upsert to its status.
func PutStatus(existed bool) Status {
	if existed {
		return StatusUpdated
	}
	return StatusCreated
}

// Result is the outcome of a single operation. ID is always set; Mapping is
// set for every status except StatusFailed. Err explains a StatusFailed
// result that was rejected rather than not found.
type Result struct {
	Status  Status
	ID      string
	Mapping *record.Mapping
	Err     error
}

// Succeeded reports whether the status is anything but StatusFailed.
func (r Result) Succeeded() bool {
	return r.Status != StatusFailed
}

// Payload returns the mapping on success and the identifier on failure.
func (r Result) Payload() any {
	if r.Status == StatusFailed || r.Mapping == nil {
		return r.ID
	}
	return r.Mapping
}

// MarshalJSON encodes the result as {"status": ..., "payload": ...}.
func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		Status  Status `json:"status"`
		Payload any    `json:"payload"`
		Error   string `json:"error,omitempty"`
	}{Status: r.Status, Payload: r.Payload()}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Found builds a StatusOK result.
func Found(id string, m *record.Mapping) Result {
	return Result{Status: StatusOK, ID: id, Mapping: m}
}

// Put builds the result of an upsert.
func Put(id string, existed bool, m *record.Mapping) Result {
	return Result{Status: PutStatus(existed), ID: id, Mapping: m}
}

// Removed builds the result of a successful destroy.
func Removed(id string, m *record.Mapping) Result {
	return Result{Status: StatusUpdated, ID: id, Mapping: m}
}

// Missing builds a StatusFailed result carrying the identifier.
func Missing(id string) Result {
	return Result{Status: StatusFailed, ID: id}
}

// Rejected builds a StatusFailed result for an input that failed validation.
func Rejected(id string, err error) Result {
	return Result{Status: StatusFailed, ID: id, Err: err}
}

// BatchResult holds one Result per input, in input order.
type BatchResult []Result

// Statuses returns the status of every result.
func (b BatchResult) Statuses() []Status {
	out := make([]Status, len(b))
	for i, r := range b {
		out[i] = r.Status
	}
	return out
}

// Mappings returns the mappings of successful results.
func (b BatchResult) Mappings() []*record.Mapping {
	out := make([]*record.Mapping, 0, len(b))
	for _, r := range b {
		if r.Succeeded() && r.Mapping != nil {
			out = append(out, r.Mapping)
		}
	}
	return out
}
