// Package config loads the YAML configuration of the field table generator.
//
// Example:
//
//	version: "1"
//	packages:
//	  - pattern: ./examples/shadow
//	    types: [Derived]
//	    output: shadow_serial.go
package config
