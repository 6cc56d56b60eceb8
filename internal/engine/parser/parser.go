// # internal/engine/parser/parser.go
package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"tsresolve/internal/core/errors"
	"tsresolve/internal/engine/ast"
	"tsresolve/internal/shared/observability"
	"tsresolve/internal/shared/util"
)

// Parser turns TypeScript and JavaScript sources into ast modules.
type Parser struct {
	loader     *GrammarLoader
	pools      map[string]*ParserPool
	extensions map[string]string
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader:     loader,
		pools:      make(map[string]*ParserPool),
		extensions: make(map[string]string),
	}
	for lang, spec := range loader.LanguageRegistry() {
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			p.extensions[strings.ToLower(ext)] = lang
		}
		if grammar := loader.Language(lang); grammar != nil {
			p.pools[lang] = NewParserPool(grammar)
		}
	}
	return p
}

// ParseFile parses content as the file at path. The returned module has no
// ID or ModulePath; the module loader assigns those.
func (p *Parser) ParseFile(path string, content []byte) (*ast.Module, error) {
	lang := p.detectLanguage(path)
	if lang == "" {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotSupported, "unsupported language"),
			errors.CtxPath, path,
		)
	}
	pool := p.pools[lang]
	if pool == nil {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("grammar not loaded: %s", lang))
	}

	start := time.Now()
	tree := pool.Parse(content)
	if tree == nil {
		return nil, errors.AddContext(
			errors.New(errors.CodeParse, "parse failed"),
			errors.CtxPath, path,
		)
	}
	defer tree.Close()

	root := tree.RootNode()
	ctx := &sourceContext{Source: content, File: path}
	scopes := newScopeResolver(ctx)
	idents := scopes.resolve(root)
	lower := &lowerer{ctx: ctx, ids: scopes.byStart}

	mod := &ast.Module{
		Path:        path,
		Language:    lang,
		Range:       ctx.Range(root),
		Items:       lower.items(root),
		Idents:      idents,
		ParseErrors: countErrors(root),
	}
	observability.ParseDuration.WithLabelValues(lang).Observe(time.Since(start).Seconds())
	return mod, nil
}

func (p *Parser) detectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return p.extensions[ext]
}

func (p *Parser) IsSupportedPath(filePath string) bool {
	return p.GetLanguage(filePath) != ""
}

func (p *Parser) GetLanguage(path string) string {
	return p.detectLanguage(path)
}

func (p *Parser) SupportedExtensions() []string {
	return util.SortedStringKeys(p.extensions)
}
