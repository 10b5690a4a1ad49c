package sanitize

import (
	"strings"
	"unicode"
)

const (
	docMarker    = "///"
	fence        = "```"
	ignoreTag    = "ignore"
	indentWidth  = 4
	openExample  = docMarker + fence + ignoreTag
	closeExample = docMarker + fence
)

// Content rewrites generated source so rustdoc does not treat documentation text as
// examples it must compile. Opening fences get an ignore tag, and runs of doc comment lines
// indented by four or more whitespace characters are wrapped in a synthetic ignore fence.
// Every logical line of the result ends with a newline.
func Content(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 64)

	inFenced := false
	inIndented := false
	for _, line := range Lines(text) {
		if strings.HasSuffix(line, fence) {
			if inFenced {
				inFenced = false
			} else {
				if inIndented {
					writeLine(&b, closeExample)
					inIndented = false
				}
				inFenced = true
				writeLine(&b, line+ignoreTag)
				continue
			}
		}

		if !inFenced {
			if _, rest, ok := strings.Cut(line, docMarker); ok {
				if isIndented(rest) {
					if !inIndented {
						inIndented = true
						writeLine(&b, openExample)
					}
				} else if inIndented {
					writeLine(&b, closeExample)
					inIndented = false
				}
			} else if inIndented {
				writeLine(&b, closeExample)
				inIndented = false
			}
		}

		writeLine(&b, line)
	}
	return b.String()
}

// Lines splits text into logical lines the way a line iterator does: a trailing newline does
// not produce an empty final line and a carriage return before a newline is dropped.
func Lines(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}

func isIndented(rest string) bool {
	n := 0
	for _, r := range rest {
		if !unicode.IsSpace(r) {
			return false
		}
		n++
		if n == indentWidth {
			return true
		}
	}
	return false
}

func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteByte('\n')
}
