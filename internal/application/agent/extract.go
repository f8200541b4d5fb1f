package agent

import (
	"regexp"
	"strings"
)

const fence = "```"

// fencedBlock matches a fenced block with an optional language tag. The closing fence may
// be missing at the end of the text.
var fencedBlock = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)[ \\t]*\\r?\\n(.*?)(?:```|\\z)")

// codeLangs are the tags accepted as generated code. An empty tag counts as code.
var codeLangs = map[string]bool{"": true, "python": true, "py": true, "starlark": true, "star": true}

// CleanJSON strips a Markdown fence around a JSON answer. Text after a ```json block is
// ignored; bare fences are removed wherever they occur.
func CleanJSON(raw string) string {
	if i := strings.Index(raw, fence+"json"); i >= 0 {
		rest := raw[i+len(fence)+len("json"):]
		if j := strings.Index(rest, fence); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	if strings.Contains(raw, fence) {
		return strings.TrimSpace(strings.ReplaceAll(raw, fence, ""))
	}
	return strings.TrimSpace(raw)
}

// Block is one fenced block of a completion.
type Block struct {
	Lang string
	Body string
}

// Blocks returns every fenced block of raw in order, bodies trimmed.
func Blocks(raw string) []Block {
	matches := fencedBlock.FindAllStringSubmatch(raw, -1)
	out := make([]Block, 0, len(matches))
	for _, m := range matches {
		out = append(out, Block{Lang: strings.ToLower(m[1]), Body: strings.TrimSpace(m[2])})
	}
	return out
}

// Extraction is the code recovered from a completion and what was discarded on the way.
type Extraction struct {
	Code string
	// Blocks counts the code blocks found.
	Blocks int
	// DuplicateDropped is set when a second block equal to the first was discarded.
	DuplicateDropped bool
	// HalvesCollapsed is set when the code repeated itself and the second half was dropped.
	HalvesCollapsed bool
}

// ExtractCode takes the first code block of raw, or the whole text when it has none.
// Later blocks are always discarded; DuplicateDropped reports whether the second one was
// a copy of the first. Trailing blank lines are removed and code made of two identical
// halves is collapsed to one.
func ExtractCode(raw string) Extraction {
	var code []Block
	for _, b := range Blocks(raw) {
		if codeLangs[b.Lang] {
			code = append(code, b)
		}
	}

	var ex Extraction
	ex.Blocks = len(code)
	if len(code) == 0 {
		ex.Code = strings.TrimSpace(raw)
	} else {
		ex.Code = code[0].Body
		if len(code) > 1 && sameCode(code[0].Body, code[1].Body) {
			ex.DuplicateDropped = true
		}
	}

	ex.Code = TrimTrailingBlank(ex.Code)
	if collapsed, ok := CollapseHalves(ex.Code); ok {
		ex.Code = collapsed
		ex.HalvesCollapsed = true
	}
	return ex
}

// TrimTrailingBlank drops blank lines at the end of code.
func TrimTrailingBlank(code string) string {
	lines := strings.Split(code, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// CollapseHalves splits code by line count into two halves and returns the first one when
// both are equal after trimming.
func CollapseHalves(code string) (string, bool) {
	lines := strings.Split(code, "\n")
	if len(lines) < 2 {
		return code, false
	}
	half := len(lines) / 2
	first := strings.Join(lines[:half], "\n")
	second := strings.Join(lines[half:], "\n")
	if strings.TrimSpace(first) != strings.TrimSpace(second) {
		return code, false
	}
	return strings.TrimSpace(first), true
}

// sameCode compares two blocks ignoring whitespace differences.
func sameCode(a, b string) bool {
	return normalize(a) == normalize(b)
}

func normalize(code string) string {
	var lines []string
	for _, l := range strings.Split(code, "\n") {
		if f := strings.Fields(l); len(f) > 0 {
			lines = append(lines, strings.Join(f, " "))
		}
	}
	return strings.Join(lines, "\n")
}
