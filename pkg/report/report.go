// Package report prints glossary entries as delimited text lines.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/tev2-toolkit/mrgen/pkg/model"
)

// Output flags, one rune per column:
//
//	i  identity (the configured identity field)
//	t  term
//	s  scopetag
//	g  grouptags
//	y  termtype
//	l  locator
//	u  navurl
const DefaultOutputFlags = "is"

// ValidateFlags reports the first unknown output flag.
func ValidateFlags(outputFlags string) error {
	if outputFlags == "" {
		return fmt.Errorf("no output flags given")
	}
	for _, f := range outputFlags {
		if !strings.ContainsRune("itsgylu", f) {
			return fmt.Errorf("invalid print flag %q", f)
		}
	}
	return nil
}

// PrintEntries writes one line per entry. Entries that produce an empty line
// are skipped.
func PrintEntries(w io.Writer, entries []model.Entry, outputFlags, delimiter, identity string) error {
	if err := ValidateFlags(outputFlags); err != nil {
		return err
	}
	for _, e := range entries {
		line := createLine(e, outputFlags, delimiter, identity)
		if strings.Trim(line, delimiter) == "" {
			continue
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func createLine(e model.Entry, outputFlags, delimiter, identity string) string {
	var line string
	for _, f := range outputFlags {
		switch f {
		case 'i':
			line += e.Identity(identity) + delimiter
		case 't':
			line += e.Term.Term + delimiter
		case 's':
			line += e.ScopeTag + delimiter
		case 'g':
			line += strings.Join(e.NormalizedGroupTags(), ",") + delimiter
		case 'y':
			line += e.TermType + delimiter
		case 'l':
			line += e.Locator + delimiter
		case 'u':
			line += e.NavURL + delimiter
		}
	}
	return strings.TrimSuffix(line, delimiter)
}
