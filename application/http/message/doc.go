// Package message models HTTP requests and responses as values.
//
// Every With* method returns an updated copy. Headers are deep-copied
// on the way in and out, so two messages derived from the same base
// never observe each other's edits.
package message
