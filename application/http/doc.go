// Package http implements the HTTP/1.x wire format used by the client:
// version and field syntax, message encoders and decoders, and the
// parser that splits a buffered raw response into version, fields and body.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
