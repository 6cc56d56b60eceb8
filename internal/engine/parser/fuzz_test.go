package parser

import (
	"testing"
)

func FuzzParseTypeScript(f *testing.F) {
	f.Add([]byte(`import { a as b } from "./a";
export default function f(x: number) { return b(x); }
namespace N.M { export const y = 1; }
`))
	f.Add([]byte(`export * as ns from "./ns"; export = foo;`))
	loader, err := NewGrammarLoader(nil)
	if err != nil {
		f.Fatal(err)
	}
	p := NewParser(loader)
	f.Fuzz(func(t *testing.T, data []byte) {
		mod, err := p.ParseFile("fuzz.ts", data)
		if err != nil {
			return
		}
		for i := 1; i < len(mod.Idents); i++ {
			if mod.Idents[i-1].Range.StartByte > mod.Idents[i].Range.StartByte {
				t.Fatalf("idents out of order at %d", i)
			}
		}
	})
}
