package db

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// KeyField is the pseudo field holding the document key in FT.AGGREGATE LOAD.
const KeyField = "__key"

// IsValidIndexName reports whether s is a non-empty run of [a-zA-Z0-9_:-],
// safe to pass unquoted as an FT index name.
func IsValidIndexName(s string) bool {
	return s != "" && strings.IndexFunc(s, invalidIndexRune) < 0
}

func invalidIndexRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case r == '_', r == ':', r == '-':
		return false
	}
	return true
}

// CursorQuery is the input of an FT.AGGREGATE ... WITHCURSOR call.
type CursorQuery struct {
	Index   string
	Query   string   // defaults to "*"
	Load    []string // field names without the '@' prefix
	Filter  string   // optional FILTER expression
	Count   int      // rows per read
	MaxIdle time.Duration
}

// Validate checks that the query is well-formed.
func (q *CursorQuery) Validate() error {
	if !IsValidIndexName(q.Index) {
		return errors.New("index name is invalid: " + strconv.Quote(q.Index))
	}
	if len(q.Load) == 0 {
		return errors.New("at least one load field is required")
	}
	if q.Count <= 0 {
		return errors.New("count must be positive")
	}
	if q.MaxIdle < 0 {
		return errors.New("max idle must not be negative")
	}
	return nil
}

// Args renders the FT.AGGREGATE arguments.
func (q *CursorQuery) Args() []string {
	query := q.Query
	if query == "" {
		query = "*"
	}

	args := []string{q.Index, query, "LOAD", strconv.Itoa(len(q.Load))}
	for _, f := range q.Load {
		args = append(args, "@"+f)
	}
	if q.Filter != "" {
		args = append(args, "FILTER", q.Filter)
	}
	args = append(args, "WITHCURSOR", "COUNT", strconv.Itoa(q.Count))
	if q.MaxIdle > 0 {
		args = append(args, "MAXIDLE", strconv.FormatInt(q.MaxIdle.Milliseconds(), 10))
	}
	return args
}

// CursorPage is one chunk of aggregation rows.
type CursorPage struct {
	Rows     []map[string]string
	CursorID int64 // 0 once the server has no more rows
}

// Exhausted reports whether the server closed the cursor.
func (p *CursorPage) Exhausted() bool { return p.CursorID == 0 }
