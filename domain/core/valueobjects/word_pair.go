package valueobjects

import (
	"errors"
	"fmt"
)

// ErrSelfPair is returned when both endpoints of a pair are the same word.
var ErrSelfPair = errors.New("a word cannot be related to itself")

// WordPair is the canonical, order-independent form of an undirected relation.
// Low is always strictly less than High, so a pair built through NewWordPair can
// never describe a self-loop and {a,b} and {b,a} compare equal.
type WordPair struct {
	Low  WordID `json:"low"`
	High WordID `json:"high"`
}

// NewWordPair canonicalises two word ids.
func NewWordPair(a, b WordID) (WordPair, error) {
	if !a.Valid() || !b.Valid() {
		return WordPair{}, ErrInvalidWordID
	}
	if a == b {
		return WordPair{}, ErrSelfPair
	}
	if a > b {
		a, b = b, a
	}
	return WordPair{Low: a, High: b}, nil
}

// MustWordPair is NewWordPair for fixtures and literals known to be valid.
func MustWordPair(a, b WordID) WordPair {
	p, err := NewWordPair(a, b)
	if err != nil {
		panic(err)
	}
	return p
}

// Other returns the endpoint opposite to id, and false when id is not an endpoint.
func (p WordPair) Other(id WordID) (WordID, bool) {
	switch id {
	case p.Low:
		return p.High, true
	case p.High:
		return p.Low, true
	default:
		return 0, false
	}
}

// Touches reports whether id is one of the endpoints.
func (p WordPair) Touches(id WordID) bool {
	return p.Low == id || p.High == id
}

// Less orders pairs by (Low, High).
func (p WordPair) Less(o WordPair) bool {
	if p.Low != o.Low {
		return p.Low < o.Low
	}
	return p.High < o.High
}

func (p WordPair) String() string {
	return fmt.Sprintf("%d-%d", p.Low, p.High)
}
