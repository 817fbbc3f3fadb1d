
package postgres

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator issues ids for ledger entries, rules and audit rows. ULIDs
// sort lexicographically by creation time, which keeps audit trails and
// id-tiebroken listings in insertion order without an extra sequence.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate returns a new ULID string.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
