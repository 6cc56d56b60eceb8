package parser

import (
	"sync"
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

func tsLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
}

func TestParserPool_Leases(t *testing.T) {
	pool := NewParserPool(tsLanguage())

	sp1 := pool.Get()
	sp2 := pool.Get()
	if sp1 == nil || sp2 == nil {
		t.Fatal("expected parsers from pool")
	}
	if got := pool.Leased(); got != 2 {
		t.Fatalf("expected 2 leased parsers, got %d", got)
	}
	pool.Put(sp1)
	pool.Put(sp2)
	if got := pool.Leased(); got != 0 {
		t.Fatalf("expected all parsers returned, got %d leased", got)
	}
}

func TestParserPool_PutNil(t *testing.T) {
	lang := tsLanguage()
	pool := NewParserPool(lang)

	pool.Put(nil)
}

func TestParserPool_Parse(t *testing.T) {
	pool := NewParserPool(tsLanguage())

	tree := pool.Parse([]byte("export function main(): void {}\n"))
	if tree == nil {
		t.Fatal("expected a parse tree")
	}
	defer tree.Close()

	if root := tree.RootNode(); root.HasError() {
		t.Fatal("expected an error-free tree")
	}
	if got := pool.Leased(); got != 0 {
		t.Fatalf("Parse leaked %d parsers", got)
	}
}

func TestParserPool_ConcurrentAccess(t *testing.T) {
	lang := tsLanguage()
	pool := NewParserPool(lang)

	const goroutines = 20
	const iters = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)

	src := []byte("const run = () => 1;\n")

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				tree := pool.Parse(src)
				if tree == nil {
					t.Errorf("expected non-nil parse tree")
					continue
				}
				tree.Close()
			}
		}()
	}

	wg.Wait()
}

func TestParserPool_LanguageSetAfterReset(t *testing.T) {
	lang := tsLanguage()
	pool := NewParserPool(lang)

	sp := pool.Get()
	sp.Reset()
	pool.Put(sp)

	sp2 := pool.Get()
	defer pool.Put(sp2)

	src := []byte("let ok = true;\n")
	tree := sp2.Parse(src, nil)
	if tree == nil {
		t.Fatal("parser with reset language should still parse correctly after Get")
	}
	defer tree.Close()
}
