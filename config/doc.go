/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads the YAML file that describes schemas, named querysets
// and backend connections.
//
//	log:
//	  level: debug
//	schemas:
//	  - name: user
//	    fields:
//	      - name: email
//	        format: email
//	        required: true
//	querysets:
//	  users:
//	    schema: user
//	    backend: redis
//	    compress: true
//	redis:
//	  url: ${REDIS_URL}
//
// ${VAR} references are expanded from the environment before parsing, and
// LoadEnv pulls variables from .env files first.
package config
