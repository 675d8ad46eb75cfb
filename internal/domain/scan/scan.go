// Package scan models a paginated cursor over a document collection.
package scan

import (
	"strings"
	"time"
)

// DefaultIDField is the document field carrying the external user id.
const DefaultIDField = "id"

// Request opens a match-all scan over one collection and document type.
type Request struct {
	Index     string
	Type      string
	IDField   string
	Size      int
	KeepAlive time.Duration
}

// Hit is one document returned by a cursor advance.
// ExternalID is empty when the document has no id field.
type Hit struct {
	ID         string
	ExternalID string
}

// Page is an ordered batch of hits. An empty page terminates the scan.
type Page struct {
	hits []Hit
}

// NewPage creates a page from hits, preserving their order.
func NewPage(hits []Hit) Page {
	return Page{hits: hits}
}

// Hits returns the hits in cursor order.
func (p Page) Hits() []Hit { return p.hits }

// Len returns the number of hits.
func (p Page) Len() int { return len(p.hits) }

// IsEmpty reports whether the page is the terminal signal.
func (p Page) IsEmpty() bool { return len(p.hits) == 0 }

// IDs returns the internal document identifiers in page order.
func (p Page) IDs() []string {
	ids := make([]string, len(p.hits))
	for i, h := range p.hits {
		ids[i] = h.ID
	}
	return ids
}

// IDMapping builds a fresh internal -> external id mapping for the page.
// Hits without an external id are left out.
func (p Page) IDMapping() IDMapping {
	m := make(IDMapping, len(p.hits))
	for _, h := range p.hits {
		if h.ExternalID != "" {
			m[h.ID] = h.ExternalID
		}
	}
	return m
}

// IDMapping maps internal document ids to external user ids.
type IDMapping map[string]string

// Resolve returns the external id for docID; blank ids count as missing.
func (m IDMapping) Resolve(docID string) (string, bool) {
	id, ok := m[docID]
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

// Cursor is an opaque token identifying server-side scan state.
// A cursor may carry a page that was delivered together with the token
// and has not been handed out yet.
type Cursor struct {
	index   string
	token   string
	size    int
	pending *Page
}

// NewCursor creates a cursor. An empty token means the server has no more data.
func NewCursor(index, token string, size int) Cursor {
	return Cursor{index: index, token: token, size: size}
}

// Index returns the collection the cursor scans.
func (c Cursor) Index() string { return c.index }

// Token returns the server-side token.
func (c Cursor) Token() string { return c.token }

// Size returns the page size requested on every advance.
func (c Cursor) Size() int { return c.size }

// WithPending returns a copy of the cursor holding p for the next advance.
func (c Cursor) WithPending(p Page) Cursor {
	c.pending = &p
	return c
}

// TakePending returns the held page and a cursor without it.
func (c Cursor) TakePending() (Page, Cursor, bool) {
	if c.pending == nil {
		return Page{}, c, false
	}
	p := *c.pending
	c.pending = nil
	return p, c, true
}

// Exhausted reports whether advancing the cursor can only yield the empty page.
func (c Cursor) Exhausted() bool {
	return c.token == "" && c.pending == nil
}
