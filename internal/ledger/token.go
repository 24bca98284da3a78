package ledger

import (
	"slices"
	"time"
)

// TokenID identifies a token. IDs are assigned by the store as a
// monotonically increasing sequence starting at 1.
type TokenID uint64

// TokenKind discriminates raw materials from composed products.
// Wire values match the original contract encoding.
type TokenKind uint8

const (
	KindRawMaterial TokenKind = 0
	KindProduct     TokenKind = 1
)

// String returns the kind name.
func (k TokenKind) String() string {
	switch k {
	case KindRawMaterial:
		return "raw_material"
	case KindProduct:
		return "product"
	default:
		return "unknown"
	}
}

// IsValid returns true if the kind is recognized.
func (k TokenKind) IsValid() bool {
	return k == KindRawMaterial || k == KindProduct
}

// Token is one node of the provenance graph. Everything except Owner is
// immutable after creation. Parents lists the token ids this token was
// composed from, in the order the creator supplied them; it is empty for
// raw materials and non-empty for products. Because a token can only name
// already-existing tokens as parents, the graph is acyclic by construction.
type Token struct {
	ID          TokenID
	Owner       Address
	Kind        TokenKind
	Name        string
	Description string
	Metadata    string
	Parents     []TokenID
	CreatedAt   time.Time
}

// NewToken creates a token record owned by its creator. The ID is zero
// until the store assigns one.
func NewToken(owner Address, kind TokenKind, name, description, metadata string, parents []TokenID) *Token {
	return &Token{
		Owner:       owner,
		Kind:        kind,
		Name:        name,
		Description: description,
		Metadata:    metadata,
		Parents:     slices.Clone(parents),
		CreatedAt:   time.Now(),
	}
}

// HasParent reports whether id appears among the token's direct parents.
func (t *Token) HasParent(id TokenID) bool {
	return slices.Contains(t.Parents, id)
}

// Clone returns a copy of the token, including its parent list.
func (t *Token) Clone() *Token {
	c := *t
	c.Parents = slices.Clone(t.Parents)
	return &c
}
