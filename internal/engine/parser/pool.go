package parser

import (
	"sync"
	"sync/atomic"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParserPool recycles tree-sitter parsers for one grammar. Safe for
// concurrent use.
type ParserPool struct {
	lang   *sitter.Language
	pool   sync.Pool
	leased atomic.Int64
}

func NewParserPool(lang *sitter.Language) *ParserPool {
	p := &ParserPool{lang: lang}
	p.pool.New = func() any {
		sp := sitter.NewParser()
		_ = sp.SetLanguage(lang)
		return sp
	}
	return p
}

// Get leases a parser set to the pool's grammar. Return it with Put.
func (p *ParserPool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// Reset may have cleared the language.
	_ = sp.SetLanguage(p.lang)
	p.leased.Add(1)
	return sp
}

// Put resets sp and returns it to the pool. sp must not be used afterwards.
func (p *ParserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	p.leased.Add(-1)
	sp.Reset()
	p.pool.Put(sp)
}

// Parse parses source with a leased parser. The caller closes the tree.
func (p *ParserPool) Parse(source []byte) *sitter.Tree {
	sp := p.Get()
	defer p.Put(sp)
	return sp.Parse(source, nil)
}

// Leased returns the number of parsers currently out of the pool.
func (p *ParserPool) Leased() int {
	return int(p.leased.Load())
}
