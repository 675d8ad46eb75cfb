package db

import (
	"strings"
	"testing"
	"time"
)

func TestAggregateBuilder_Simple(t *testing.T) {
	q := NewAggregate("articles").
		Load(KeyField, "id").
		KeyPrefix("article:").
		WithCursor(100, 10*time.Minute).
		MustBuild()

	want := []string{
		"articles", "*", "LOAD", "2", "@__key", "@id",
		"FILTER", `startswith(@__key,"article:")`,
		"WITHCURSOR", "COUNT", "100", "MAXIDLE", "600000",
	}
	got := q.Args()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v\nwant %v", got, want)
	}
}

func TestAggregateBuilder_NoFilterNoIdle(t *testing.T) {
	q := NewAggregate("articles").Load("id").WithCursor(10, 0).MustBuild()
	s := q.String()
	if strings.Contains(s, "FILTER") || strings.Contains(s, "MAXIDLE") {
		t.Errorf("unexpected clause in %q", s)
	}
	if !strings.HasPrefix(s, "FT.AGGREGATE articles * LOAD 1 @id WITHCURSOR COUNT 10") {
		t.Errorf("String() = %q", s)
	}
}

func TestAggregateBuilder_Validation(t *testing.T) {
	tests := []struct {
		name string
		b    *AggregateBuilder
	}{
		{"blank index", NewAggregate("").Load("id").WithCursor(1, 0)},
		{"bad index", NewAggregate("a b").Load("id").WithCursor(1, 0)},
		{"no load", NewAggregate("idx").WithCursor(1, 0)},
		{"zero count", NewAggregate("idx").Load("id")},
		{"negative idle", NewAggregate("idx").Load("id").WithCursor(1, -time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.b.Build(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestAggregateBuilder_MustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewAggregate("").MustBuild()
}

func TestCursorPage_Exhausted(t *testing.T) {
	if !(&CursorPage{}).Exhausted() {
		t.Error("zero cursor id should be exhausted")
	}
	if (&CursorPage{CursorID: 7}).Exhausted() {
		t.Error("non-zero cursor id is live")
	}
}

func TestIsValidIndexName(t *testing.T) {
	tests := map[string]bool{
		"articles":     true,
		"taste:user-1": true,
		"":             false,
		"a b":          false,
		"idx*":         false,
	}
	for in, want := range tests {
		if got := IsValidIndexName(in); got != want {
			t.Errorf("IsValidIndexName(%q) = %v, want %v", in, got, want)
		}
	}
}
