package model

import "github.com/pgvector/pgvector-go"

// FAQEntry is one curated question/answer pair with its precomputed
// question embedding. Entries are immutable once the index is built;
// a reload swaps in a freshly built index rather than mutating in place.
type FAQEntry struct {
	ID        string
	Question  string
	Answer    string
	Category  string
	Embedding pgvector.Vector
}
