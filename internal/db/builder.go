package db

import (
	"strconv"
	"strings"
	"time"
)

// AggregateBuilder is a fluent builder for cursor queries.
type AggregateBuilder struct {
	q CursorQuery
}

// NewAggregate starts building an FT.AGGREGATE cursor query over index.
func NewAggregate(index string) *AggregateBuilder {
	return &AggregateBuilder{q: CursorQuery{Index: index, Query: "*"}}
}

// Load adds fields to the LOAD clause.
func (b *AggregateBuilder) Load(fields ...string) *AggregateBuilder {
	b.q.Load = append(b.q.Load, fields...)
	return b
}

// KeyPrefix restricts rows to document keys starting with prefix.
func (b *AggregateBuilder) KeyPrefix(prefix string) *AggregateBuilder {
	b.q.Filter = "startswith(@" + KeyField + "," + strconv.Quote(prefix) + ")"
	return b
}

// WithCursor sets the page size and the cursor idle timeout.
func (b *AggregateBuilder) WithCursor(count int, maxIdle time.Duration) *AggregateBuilder {
	b.q.Count = count
	b.q.MaxIdle = maxIdle
	return b
}

// Build validates and returns the query.
func (b *AggregateBuilder) Build() (*CursorQuery, error) {
	if err := b.q.Validate(); err != nil {
		return nil, err
	}
	q := b.q
	q.Load = append([]string(nil), b.q.Load...)
	return &q, nil
}

// MustBuild calls Build and panics on error.
func (b *AggregateBuilder) MustBuild() *CursorQuery {
	q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}

// String returns a debug representation resembling the FT.AGGREGATE command.
func (q *CursorQuery) String() string {
	return "FT.AGGREGATE " + strings.Join(q.Args(), " ")
}
