package ast

import "testing"

func testModule() *Module {
	return &Module{
		ID:   1,
		Path: "/app/a.ts",
		Idents: []*Ident{
			{Name: "f", Ctxt: 1, Binding: true, Range: Range{StartByte: 9, EndByte: 10}},
			{Name: "x", Ctxt: 2, Binding: true, Range: Range{StartByte: 11, EndByte: 12}},
			{Name: "x", Ctxt: 2, Range: Range{StartByte: 24, EndByte: 25}},
			{Name: "f", Ctxt: 1, Range: Range{StartByte: 29, EndByte: 30}},
		},
	}
}

func TestModule_IdentQueries(t *testing.T) {
	m := testModule()

	if got := m.IdentsNamed("x"); len(got) != 2 {
		t.Fatalf("expected 2 occurrences of x, got %d", len(got))
	}
	refs := m.References()
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}
	if refs[1].Name != "f" {
		t.Errorf("expected last reference to be f, got %s", refs[1].Name)
	}

	if id := m.IdentAt(29); id == nil || id.Name != "f" || id.Binding {
		t.Errorf("expected reference f at offset 29, got %v", id)
	}
	if id := m.IdentAt(15); id != nil {
		t.Errorf("expected no ident at offset 15, got %v", id)
	}
}

func TestBindingID(t *testing.T) {
	a := (&Ident{Name: "f", Ctxt: 1}).ID()
	b := (&Ident{Name: "f", Ctxt: 1, Binding: true}).ID()
	c := (&Ident{Name: "f", Ctxt: 3}).ID()
	if a != b {
		t.Error("expected equal binding ids for same name and context")
	}
	if a == c {
		t.Error("expected distinct binding ids for different contexts")
	}
	if a.String() != "f#1" {
		t.Errorf("unexpected binding id string %q", a.String())
	}
}
