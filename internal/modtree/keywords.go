package modtree

import "strings"

const rawPrefix = "r#"

// Keywords that may appear as a package segment and must be exported as raw identifiers.
// self, super, crate and Self cannot be raw identifiers and are left alone.
var rustKeywords = map[string]bool{
	"as": true, "async": true, "await": true, "break": true, "const": true, "continue": true,
	"dyn": true, "else": true, "enum": true, "extern": true, "false": true, "fn": true,
	"for": true, "gen": true, "if": true, "impl": true, "in": true, "let": true, "loop": true,
	"match": true, "mod": true, "move": true, "mut": true, "pub": true, "ref": true,
	"return": true, "static": true, "struct": true, "trait": true, "true": true, "type": true,
	"unsafe": true, "use": true, "where": true, "while": true, "abstract": true, "become": true,
	"box": true, "do": true, "final": true, "macro": true, "override": true, "priv": true,
	"try": true, "typeof": true, "unsized": true, "virtual": true, "yield": true,
}

// plainName strips a raw identifier prefix some generators already put in file names.
func plainName(segment string) string {
	return strings.TrimPrefix(segment, rawPrefix)
}

// exportName is the identifier used in a `pub mod` line for a package segment.
func exportName(name string) string {
	if rustKeywords[name] {
		return rawPrefix + name
	}
	return name
}
