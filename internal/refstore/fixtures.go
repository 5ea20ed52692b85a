package refstore

import (
	petname "github.com/dustinkirkland/golang-petname"

	"triplequery/internal/triple"
)

// NewFixtureClientID returns a readable, petname-based client id for
// conformance fixtures and tests, so failures print something legible
// ("shining-mallard") instead of an opaque uuid.
func NewFixtureClientID() string {
	return petname.Generate(2, "-")
}

// Seed writes a set of triples into idx as a single batch, a
// convenience for tests building up fixture entities.
func Seed(idx *MemoryIndex, triples ...triple.Triple) {
	idx.Write(triples)
}
