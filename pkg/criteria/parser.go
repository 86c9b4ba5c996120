// Package criteria parses term selection criteria such as
// "tags[management, community]@essif-lab:0.9.4" or "-terms[actor]".
package criteria

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tev2-toolkit/mrgen/pkg/filter"
	"github.com/tev2-toolkit/mrgen/pkg/model"
)

var ErrInvalidExpression = errors.New("invalid term selection expression")

// optional '-', kind, optional [values], optional @scopetag, optional :vsntag
var exprRe = regexp.MustCompile(`^\s*(-)?\s*(tags|terms|\*)\s*(?:\[([^\]]*)\])?\s*(?:@\s*([^:\s\[\]@]+))?\s*(?::\s*([^\s\[\]@:]+))?\s*$`)

// ParseError reports an expression that does not match the grammar.
type ParseError struct {
	Expr string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidExpression, e.Expr)
}

func (e *ParseError) Unwrap() error { return ErrInvalidExpression }

// Directive is one parsed selection expression.
type Directive struct {
	Remove     bool
	Kind       filter.Kind
	Values     []string
	ScopeTag   string
	VersionTag string
}

// Parse parses a single selection expression.
func Parse(expr string) (Directive, error) {
	m := exprRe.FindStringSubmatch(expr)
	if m == nil {
		return Directive{}, &ParseError{Expr: expr}
	}
	kind, _ := filter.ParseKind(m[2])
	d := Directive{
		Remove:     m[1] == "-",
		Kind:       kind,
		ScopeTag:   m[4],
		VersionTag: m[5],
	}
	if kind != filter.All {
		d.Values = model.SplitAndNormalize(m[3])
	}
	return d, nil
}

// ParseAll parses every expression, returning the valid directives in order
// and one error per rejected expression.
func ParseAll(exprs []string) ([]Directive, []error) {
	var (
		out  []Directive
		errs []error
	)
	for _, e := range exprs {
		d, err := Parse(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, d)
	}
	return out, errs
}

// Target returns the scope tag the directive applies to, or local when the
// expression names none.
func (d Directive) Target(local string) string {
	if d.ScopeTag == "" {
		return local
	}
	return d.ScopeTag
}

func (d Directive) Filter() filter.TermFilter {
	return filter.Of(d.Kind, strings.Join(d.Values, ","))
}

// String renders the directive in canonical form. Parsing the result yields
// an equal directive.
func (d Directive) String() string {
	var b strings.Builder
	if d.Remove {
		b.WriteByte('-')
	}
	b.WriteString(d.Kind.String())
	if d.Kind != filter.All {
		b.WriteString("[" + strings.Join(d.Values, ",") + "]")
	}
	if d.ScopeTag != "" {
		b.WriteString("@" + d.ScopeTag)
	}
	if d.VersionTag != "" {
		b.WriteString(":" + d.VersionTag)
	}
	return b.String()
}
