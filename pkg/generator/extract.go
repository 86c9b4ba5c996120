package generator

import (
	"fmt"
	"strings"

	"github.com/tev2-toolkit/mrgen/pkg/connectors"
	"github.com/tev2-toolkit/mrgen/pkg/model"
)

const (
	markdownHeading = "#"
	horizontalRule  = "---"
)

// Headings that introduce the structured part of a term file.
var sectionsOfInterest = []string{"multiple-use fields", "generic front-matter"}

// CleanTermFile returns the structured lines of a term file. Lines under a
// heading naming a section of interest are kept, except headings, horizontal
// rules and blank lines. Files without such a section fall back to the block
// between the first two "---" fences, if the file opens with one.
func CleanTermFile(content string) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var b strings.Builder
	interesting := false
	for _, line := range lines {
		if strings.HasPrefix(line, markdownHeading) {
			interesting = isSectionOfInterest(line)
			continue
		}
		if !interesting || strings.TrimSpace(line) == "" || strings.HasPrefix(line, horizontalRule) {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if b.Len() > 0 {
		return b.String()
	}
	return frontMatter(lines)
}

func isSectionOfInterest(heading string) bool {
	h := strings.ToLower(heading)
	for _, s := range sectionsOfInterest {
		if strings.Contains(h, s) {
			return true
		}
	}
	return false
}

func frontMatter(lines []string) string {
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" && start < 0 {
			continue
		}
		if strings.TrimRight(line, " \t") != horizontalRule {
			if start < 0 {
				return ""
			}
			continue
		}
		if start < 0 {
			start = i + 1
			continue
		}
		return strings.Join(lines[start:i], "\n") + "\n"
	}
	return ""
}

// HeadingIDs returns an anchor id for every markdown heading of the file, in
// order. Headings of the structured sections are not included.
func HeadingIDs(content string) []string {
	var ids []string
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, markdownHeading) || isSectionOfInterest(line) {
			continue
		}
		if id := slug(strings.TrimLeft(line, "# \t")); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case r == ' ' || r == '-' || r == '_':
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ExtractTerm turns one term file into a Term tagged with its filename and
// heading trail.
func ExtractTerm(f connectors.FileContent) (model.Term, error) {
	t, err := model.ParseTerm(CleanTermFile(f.Content))
	if err != nil {
		return t, fmt.Errorf("%s: %w", f.Filename, err)
	}
	t.Filename = f.Filename
	t.Headings = HeadingIDs(f.Content)
	return t, nil
}
