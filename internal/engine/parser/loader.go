// # internal/engine/parser/loader.go
package parser

import (
	"fmt"
	"sort"
	"strings"

	"tsresolve/internal/shared/util"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// LanguageSpec maps a grammar to the file extensions it parses.
type LanguageSpec struct {
	Name       string
	Extensions []string
	Enabled    bool
}

// DefaultLanguageRegistry returns the grammars tsresolve understands.
func DefaultLanguageRegistry() map[string]LanguageSpec {
	return map[string]LanguageSpec{
		"typescript": {Name: "typescript", Extensions: []string{".ts", ".mts", ".cts"}, Enabled: true},
		"tsx":        {Name: "tsx", Extensions: []string{".tsx"}, Enabled: true},
		"javascript": {Name: "javascript", Extensions: []string{".js", ".mjs", ".cjs", ".jsx"}, Enabled: true},
	}
}

type GrammarLoader struct {
	languages map[string]*sitter.Language
	registry  map[string]LanguageSpec
}

// NewGrammarLoader loads the grammars whose extensions appear in extensions.
// An empty list enables every known grammar.
func NewGrammarLoader(extensions []string) (*GrammarLoader, error) {
	registry := DefaultLanguageRegistry()
	if len(extensions) > 0 {
		wanted := make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			wanted[strings.ToLower(ext)] = true
		}
		for name, spec := range registry {
			spec.Enabled = false
			for _, ext := range spec.Extensions {
				if wanted[ext] {
					spec.Enabled = true
					break
				}
			}
			registry[name] = spec
		}
	}
	return NewGrammarLoaderWithRegistry(registry)
}

func NewGrammarLoaderWithRegistry(registry map[string]LanguageSpec) (*GrammarLoader, error) {
	gl := &GrammarLoader{
		languages: make(map[string]*sitter.Language),
		registry:  make(map[string]LanguageSpec, len(registry)),
	}
	for name, spec := range registry {
		spec.Extensions = append([]string(nil), spec.Extensions...)
		gl.registry[name] = spec
	}

	for _, langID := range util.SortedStringKeys(gl.registry) {
		if !gl.registry[langID].Enabled {
			continue
		}
		switch langID {
		case "javascript":
			gl.languages["javascript"] = sitter.NewLanguage(tree_sitter_javascript.Language())
		case "tsx":
			gl.languages["tsx"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
		case "typescript":
			gl.languages["typescript"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		default:
			return nil, fmt.Errorf("language %q is enabled but no grammar is bundled for it", langID)
		}
	}
	return gl, nil
}

// Language returns the loaded grammar for a language id.
func (gl *GrammarLoader) Language(name string) *sitter.Language {
	return gl.languages[name]
}

func (gl *GrammarLoader) LanguageRegistry() map[string]LanguageSpec {
	out := make(map[string]LanguageSpec, len(gl.registry))
	for name, spec := range gl.registry {
		out[name] = spec
	}
	return out
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	set := make(map[string]bool)
	for _, spec := range gl.registry {
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			set[ext] = true
		}
	}
	extensions := make([]string, 0, len(set))
	for ext := range set {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}
