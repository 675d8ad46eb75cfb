// Package termvector holds the result of a batched term frequency lookup.
package termvector

import "github.com/kailas-cloud/termgen/internal/domain"

// Request asks for the term vectors of ids restricted to fields.
type Request struct {
	Index  string
	Type   string
	IDs    []string
	Fields []string
}

// Term is one distinct term of a field and its occurrence count.
type Term struct {
	Text string
	Freq int
}

// FieldTerms lists the terms of one field in analysis order.
type FieldTerms struct {
	Field string
	Terms []Term
}

// Item is the lookup outcome for a single document: either Failure or Fields is set.
type Item struct {
	ID      string
	Index   string
	Type    string
	Fields  []FieldTerms
	Failure *domain.ItemFailure
}

// NewItem creates a successful item.
func NewItem(index, typ, id string, fields []FieldTerms) Item {
	return Item{ID: id, Index: index, Type: typ, Fields: fields}
}

// NewFailedItem creates an item carrying a per-document failure.
func NewFailedItem(index, typ, id string, err error) Item {
	return Item{
		ID: id, Index: index, Type: typ,
		Failure: &domain.ItemFailure{Index: index, Type: typ, ID: id, Err: err},
	}
}

// Failed reports whether the lookup failed for this document.
func (it Item) Failed() bool { return it.Failure != nil }

// Field returns the terms of the named field.
func (it Item) Field(name string) (FieldTerms, bool) {
	for _, f := range it.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return FieldTerms{}, false
}

// Result is the response to one Request, one item per requested id.
type Result struct {
	Items []Item
}
