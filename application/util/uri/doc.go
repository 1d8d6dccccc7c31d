// Package uri implements a permissive Uniform Resource Identifier (URI)
// value with copy-on-write builders.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc3986
package uri
