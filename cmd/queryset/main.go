/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command queryset runs CRUD operations against a configured queryset.
//
//	queryset [-config file] [-env file] [-debug] <queryset> <create|read|update|destroy> [ids...]
//
// create and update read a JSON object or array of objects from stdin. Every
// result is written to stdout as one JSON line.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/suparena/querysets"
	"github.com/suparena/querysets/config"
	"github.com/suparena/querysets/queryset"
	"github.com/suparena/querysets/record"
	"go.uber.org/zap"
)

const usage = `usage: queryset [flags] <queryset> <create|read|update|destroy> [ids...]

create and update read a JSON object or array from stdin.
read with no ids reads every entity.

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("queryset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	configFile := fs.String("config", "querysets.yaml", "configuration file")
	envFile := fs.String("env", "", "dotenv file loaded before the configuration (default ./.env when present)")
	debug := fs.Bool("debug", false, "log at debug level to the console")
	versionFlag := fs.Bool("version", false, "Show version information")
	vFlag := fs.Bool("v", false, "Show version information (short)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag || *vFlag {
		info := querysets.GetVersionInfo()
		fmt.Fprintf(stdout, "queryset version %s\n", info.Version)
		fmt.Fprintf(stdout, "Git commit: %s\n", info.GitCommit)
		fmt.Fprintf(stdout, "Build date: %s\n", info.BuildDate)
		fmt.Fprintf(stdout, "Go version: %s\n", info.GoVersion)
		return 0
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return 2
	}
	name, op, ids := fs.Arg(0), fs.Arg(1), fs.Args()[2:]

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	if err := config.LoadEnv(envFiles...); err != nil {
		fmt.Fprintf(stderr, "queryset: %v\n", err)
		return 1
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "queryset: %v\n", err)
		return 1
	}
	if *debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
	logger, err := cfg.Log.Build()
	if err != nil {
		fmt.Fprintf(stderr, "queryset: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if err := execute(ctx, cfg, logger, name, op, ids, stdin, stdout); err != nil {
		logger.Error("operation failed", zap.String("queryset", name), zap.String("operation", op), zap.Error(err))
		fmt.Fprintf(stderr, "queryset: %v\n", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, cfg *config.Config, logger *zap.Logger, name, op string, ids []string, stdin io.Reader, stdout io.Writer) error {
	reg, closeAll, err := querysets.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeAll(); err != nil {
			logger.Warn("failed to close backends", zap.Error(err))
		}
	}()

	qs, err := reg.Get(name)
	if err != nil {
		return err
	}

	var results queryset.BatchResult
	switch op {
	case "create", "update":
		if len(ids) > 0 {
			return fmt.Errorf("%s takes records on stdin, not identifiers", op)
		}
		schema, err := reg.Schema(name)
		if err != nil {
			return err
		}
		recs, err := readRecords(stdin, schema)
		if err != nil {
			return err
		}
		if op == "create" {
			results, err = queryset.Create(ctx, qs, recs...)
		} else {
			results, err = queryset.Update(ctx, qs, recs...)
		}
		if werr := writeResults(stdout, results); werr != nil {
			return werr
		}
		return err
	case "read":
		results, err = queryset.Read(ctx, qs, ids...)
	case "destroy":
		if len(ids) == 0 {
			return errors.New("destroy needs at least one identifier")
		}
		results, err = queryset.Destroy(ctx, qs, ids...)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	if werr := writeResults(stdout, results); werr != nil {
		return werr
	}
	return err
}

// readRecords decodes a JSON object or array of objects into documents of
// schema. Field order in the input is kept.
func readRecords(r io.Reader, schema *record.Schema) ([]record.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("no records on stdin")
	}

	var raws []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("failed to decode input: %w", err)
		}
	} else {
		raws = []json.RawMessage{data}
	}

	recs := make([]record.Record, 0, len(raws))
	for i, raw := range raws {
		m := record.NewMapping()
		if err := m.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		doc, err := schema.FromMapping(m)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		recs = append(recs, doc)
	}
	return recs, nil
}

func writeResults(w io.Writer, results queryset.BatchResult) error {
	enc := json.NewEncoder(w)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return nil
}
