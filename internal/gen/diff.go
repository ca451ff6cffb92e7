package gen

import (
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const diffContextLines = 3

// LineKind tells whether a diff line was kept, added or removed
type LineKind string

const (
	LineContext LineKind = "context"
	LineAdded   LineKind = "added"
	LineRemoved LineKind = "removed"
)

// DiffLine is a single line of a hunk. OldNumber is 0 for added lines and
// NewNumber is 0 for removed lines.
type DiffLine struct {
	Kind      LineKind `json:"kind"`
	OldNumber int      `json:"oldNumber,omitempty"`
	NewNumber int      `json:"newNumber,omitempty"`
	Text      string   `json:"text"`
}

// DiffHunk is a contiguous block of changes with surrounding context
type DiffHunk struct {
	OldStart int        `json:"oldStart"`
	OldLines int        `json:"oldLines"`
	NewStart int        `json:"newStart"`
	NewLines int        `json:"newLines"`
	Lines    []DiffLine `json:"lines"`
}

// Header renders the unified diff hunk header
func (h DiffHunk) Header() string {
	return "@@ -" + rangeString(h.OldStart, h.OldLines) + " +" + rangeString(h.NewStart, h.NewLines) + " @@"
}

// FileDiff is the difference between a file on disk and its generated content
type FileDiff struct {
	Path      string     `json:"path"`
	Operation Operation  `json:"operation"`
	Hunks     []DiffHunk `json:"hunks"`
}

// Identical reports whether there is nothing to show
func (d *FileDiff) Identical() bool {
	return len(d.Hunks) == 0
}

func computeDiff(path string, old, newer []byte) *FileDiff {
	a := splitLines(string(old))
	b := splitLines(string(newer))

	diff := &FileDiff{Path: path, Operation: OpOverwrite}
	matcher := difflib.NewMatcher(a, b)
	for _, group := range matcher.GetGroupedOpCodes(diffContextLines) {
		first, last := group[0], group[len(group)-1]
		hunk := DiffHunk{
			OldStart: first.I1 + 1,
			OldLines: last.I2 - first.I1,
			NewStart: first.J1 + 1,
			NewLines: last.J2 - first.J1,
		}
		for _, op := range group {
			if op.Tag == 'e' {
				for i := op.I1; i < op.I2; i++ {
					hunk.Lines = append(hunk.Lines, DiffLine{
						Kind:      LineContext,
						OldNumber: i + 1,
						NewNumber: op.J1 + (i - op.I1) + 1,
						Text:      trimEOL(a[i]),
					})
				}
				continue
			}
			if op.Tag == 'r' || op.Tag == 'd' {
				for i := op.I1; i < op.I2; i++ {
					hunk.Lines = append(hunk.Lines, DiffLine{Kind: LineRemoved, OldNumber: i + 1, Text: trimEOL(a[i])})
				}
			}
			if op.Tag == 'r' || op.Tag == 'i' {
				for j := op.J1; j < op.J2; j++ {
					hunk.Lines = append(hunk.Lines, DiffLine{Kind: LineAdded, NewNumber: j + 1, Text: trimEOL(b[j])})
				}
			}
		}
		diff.Hunks = append(diff.Hunks, hunk)
	}
	return diff
}

// splitLines keeps line terminators. A trailing newline ends the last line
// rather than starting an empty one.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func trimEOL(line string) string {
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
}

func rangeString(start, length int) string {
	if length == 1 {
		return strconv.Itoa(start)
	}
	if length == 0 {
		start--
	}
	return strconv.Itoa(start) + "," + strconv.Itoa(length)
}
