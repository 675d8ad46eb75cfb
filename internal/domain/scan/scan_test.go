package scan

import "testing"

func TestPage_IDsAndMapping(t *testing.T) {
	p := NewPage([]Hit{
		{ID: "article:1", ExternalID: "u1"},
		{ID: "article:2"},
		{ID: "article:3", ExternalID: "  "},
	})

	ids := p.IDs()
	if len(ids) != 3 || ids[0] != "article:1" || ids[2] != "article:3" {
		t.Fatalf("unexpected ids: %v", ids)
	}

	m := p.IDMapping()
	if id, ok := m.Resolve("article:1"); !ok || id != "u1" {
		t.Errorf("Resolve(article:1) = %q, %v", id, ok)
	}
	if _, ok := m.Resolve("article:2"); ok {
		t.Error("hit without external id must not resolve")
	}
	if _, ok := m.Resolve("article:3"); ok {
		t.Error("blank external id must not resolve")
	}
	if _, ok := m.Resolve("article:404"); ok {
		t.Error("unknown id must not resolve")
	}
}

func TestPage_Empty(t *testing.T) {
	var p Page
	if !p.IsEmpty() || p.Len() != 0 {
		t.Error("zero page should be empty")
	}
	if len(p.IDMapping()) != 0 {
		t.Error("expected empty mapping")
	}
}

func TestCursor_Pending(t *testing.T) {
	c := NewCursor("articles", "42", 10)
	if c.Exhausted() {
		t.Fatal("cursor with token should not be exhausted")
	}

	if _, _, ok := c.TakePending(); ok {
		t.Fatal("fresh cursor holds no page")
	}

	held := c.WithPending(NewPage([]Hit{{ID: "a"}}))
	p, rest, ok := held.TakePending()
	if !ok || p.Len() != 1 {
		t.Fatalf("expected held page, got %v %v", p, ok)
	}
	if _, _, ok := rest.TakePending(); ok {
		t.Error("page must be handed out once")
	}
	if rest.Token() != "42" || rest.Index() != "articles" || rest.Size() != 10 {
		t.Errorf("cursor fields lost: %+v", rest)
	}
}

func TestCursor_Exhausted(t *testing.T) {
	c := NewCursor("articles", "", 10)
	if !c.Exhausted() {
		t.Error("cursor without token should be exhausted")
	}
	if c.WithPending(NewPage([]Hit{{ID: "a"}})).Exhausted() {
		t.Error("cursor holding a page is not exhausted")
	}
}
