package sanitize

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Finding is a code block inside a documentation comment that rustdoc would still compile.
type Finding struct {
	Line int    // 1-based line in the scanned source
	Kind string // "indented" or "fenced"
	Info string // fence info string, empty for indented blocks
}

// rustdoc attributes that keep a block a Rust doctest.
var doctestAttrs = map[string]bool{
	"rust":         true,
	"no_run":       true,
	"should_panic": true,
	"compile_fail": true,
	"test_harness": true,
	"standalone":   true,
}

type docBlock struct {
	lines  []string
	source []int // source line number for each entry in lines
}

// Residual parses each outer documentation comment block in source as Markdown and reports the
// code blocks rustdoc would treat as doctests. Sanitized output is expected to yield none.
func Residual(source string) []Finding {
	var findings []Finding
	md := goldmark.New()
	for _, block := range docBlocks(source) {
		body := []byte(strings.Join(unindent(block.lines), "\n") + "\n")
		root := md.Parser().Parse(text.NewReader(body))
		_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
			if !entering {
				return gmast.WalkContinue, nil
			}
			switch node := n.(type) {
			case *gmast.CodeBlock:
				findings = append(findings, Finding{
					Line: block.lineAt(body, firstOffset(node)),
					Kind: "indented",
				})
			case *gmast.FencedCodeBlock:
				info := ""
				if node.Info != nil {
					info = string(node.Info.Segment.Value(body))
				}
				if isDoctest(info) {
					findings = append(findings, Finding{
						Line: block.lineAt(body, firstOffset(node)),
						Kind: "fenced",
						Info: info,
					})
				}
			}
			return gmast.WalkContinue, nil
		})
	}
	return findings
}

func docBlocks(source string) []docBlock {
	var blocks []docBlock
	var cur *docBlock
	for i, line := range Lines(source) {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, docMarker) && !strings.HasPrefix(trimmed, "////") {
			if cur == nil {
				blocks = append(blocks, docBlock{})
				cur = &blocks[len(blocks)-1]
			}
			cur.lines = append(cur.lines, strings.TrimPrefix(trimmed, docMarker))
			cur.source = append(cur.source, i+1)
			continue
		}
		cur = nil
	}
	return blocks
}

// unindent removes the indentation shared by all non-blank lines, as rustdoc does before
// handing the text to its Markdown parser.
func unindent(lines []string) []string {
	common := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	if common <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) >= common {
			out[i] = l[common:]
		} else {
			out[i] = strings.TrimLeft(l, " \t")
		}
	}
	return out
}

func isDoctest(info string) bool {
	tokens := strings.FieldsFunc(info, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	for _, tok := range tokens {
		switch {
		case tok == ignoreTag || tok == "text":
			return false
		case doctestAttrs[tok], strings.HasPrefix(tok, "edition"):
			continue
		default:
			// Another language: rustdoc renders it but does not compile it.
			return false
		}
	}
	return true
}

func firstOffset(n gmast.Node) int {
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		return lines.At(0).Start
	}
	if fenced, ok := n.(*gmast.FencedCodeBlock); ok && fenced.Info != nil {
		return fenced.Info.Segment.Start
	}
	return 0
}

func (b docBlock) lineAt(body []byte, offset int) int {
	if offset > len(body) {
		offset = len(body)
	}
	idx := strings.Count(string(body[:offset]), "\n")
	if idx >= len(b.source) {
		idx = len(b.source) - 1
	}
	return b.source[idx]
}
