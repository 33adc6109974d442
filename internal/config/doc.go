// Package config provides configuration parsing for the reactor CLI.
//
// The configuration is stored in reactor.yaml. This package handles loading,
// saving, validating and describing (as JSON schema) the configuration, and
// turns it into the logger, enhancer and package switches the reactive
// runtime uses.
//
// # Configuration File Structure
//
//	mode: development
//	enhancer: deep
//	maxFlushIterations: 100
//	logging:
//	  level: debug
//	  format: json
//	  transactions: true
//	metrics:
//	  enabled: true
//	  namespace: reactor
//	tracing:
//	  enabled: false
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Apply()
package config
