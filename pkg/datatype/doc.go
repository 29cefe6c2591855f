// Package datatype converts between request strings and typed widget values.
//
// A [Datatype] knows how to parse a submitted string into a Go value, how to
// format a value back to a string for output, and which Go values it accepts
// when set programmatically. Number parsing and formatting follow the request
// locale through golang.org/x/text.
package datatype
