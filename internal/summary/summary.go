// Package summary parses compaction summaries into collapsible sections.
//
// Compaction summaries arrive as one long markdown block with numbered,
// bolded headings. Parsing is total and lossless: content is only ever
// regrouped, never dropped, and malformed input degrades to a single
// unstructured block.
package summary

import (
	"regexp"
	"strconv"
	"strings"
)

// minHeadings is the threshold below which the text is treated as
// unstructured. One or two accidental matches in free-form prose should
// not produce a mangled section list.
const minHeadings = 3

// heading matches a numbered, bolded title on its own line, for example
// "1. **Primary Request and Intent**". A trailing colon may sit inside or
// outside the bold markers.
var heading = regexp.MustCompile(`^\s*(\d+)\.\s+\*\*(.+?)\*\*:?\s*$`)

// Section is one titled block of a parsed summary.
type Section struct {
	Number  int
	Title   string
	Heading string // the raw heading line as it appeared in the input
	Body    string
}

// Summary is the parse result. An unstructured input has everything in
// Preamble and no sections.
type Summary struct {
	Preamble string
	Sections []Section
}

// Structured reports whether the input parsed into sections.
func (s Summary) Structured() bool { return len(s.Sections) > 0 }

// Parse splits text into a preamble and numbered sections. Fewer than
// minHeadings recognized headings means the whole text comes back as the
// preamble of an unstructured summary.
func Parse(text string) Summary {
	lines := strings.Split(text, "\n")

	type mark struct {
		line   int
		number int
		title  string
	}
	var marks []mark
	for i, line := range lines {
		m := heading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		marks = append(marks, mark{line: i, number: n, title: strings.TrimSuffix(m[2], ":")})
	}
	if len(marks) < minHeadings {
		return Summary{Preamble: text}
	}

	out := Summary{Preamble: strings.Join(lines[:marks[0].line], "\n")}
	for i, mk := range marks {
		end := len(lines)
		if i+1 < len(marks) {
			end = marks[i+1].line
		}
		out.Sections = append(out.Sections, Section{
			Number:  mk.number,
			Title:   mk.title,
			Heading: lines[mk.line],
			Body:    strings.Join(lines[mk.line+1:end], "\n"),
		})
	}
	return out
}

// Text reconstructs the original input from the parse result. Used to
// guarantee that sectioning never loses content.
func (s Summary) Text() string {
	if !s.Structured() {
		return s.Preamble
	}
	parts := make([]string, 0, 1+2*len(s.Sections))
	if s.Preamble != "" {
		parts = append(parts, s.Preamble)
	}
	for _, sec := range s.Sections {
		parts = append(parts, sec.Heading)
		if sec.Body != "" {
			parts = append(parts, sec.Body)
		}
	}
	return strings.Join(parts, "\n")
}

// expandedByDefault lists the section numbers shown open on first render.
// The opening request and the trailing state sections are what a reader
// returning to a task wants first; the middle is reference material.
var expandedByDefault = map[int]bool{1: true, 7: true, 8: true, 9: true}

// DefaultExpanded reports whether a section with the given number starts
// expanded.
func DefaultExpanded(number int) bool { return expandedByDefault[number] }
