// Package id generates run identifiers for the journal. IDs never enter the
// deterministic simulation core.
package id

import "github.com/oklog/ulid/v2"

// New returns a ULID string: time-sortable and safe for concurrent callers.
func New() string {
	return ulid.Make().String()
}
