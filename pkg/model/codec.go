package model

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnableToParseSAF = errors.New("unable to parse SAF, check that it is valid YAML")
	ErrUnableToParseMRG = errors.New("unable to parse MRG, check that it is valid YAML")
	ErrCannotParseTerm  = errors.New("could not create term from input")
)

// ParseSAF decodes a Scope Administration File.
func ParseSAF(content string) (SAF, error) {
	var saf SAF
	if strings.TrimSpace(content) == "" {
		return saf, fmt.Errorf("%w: empty document", ErrUnableToParseSAF)
	}
	if err := yaml.Unmarshal([]byte(content), &saf); err != nil {
		return saf, fmt.Errorf("%w: %v", ErrUnableToParseSAF, err)
	}
	if saf.Scope.ScopeTag == "" {
		return saf, fmt.Errorf("%w: scope.scopetag is missing", ErrUnableToParseSAF)
	}
	return saf, nil
}

// ParseTerm decodes the cleaned front matter of a term file. A term with none
// of its identity fields set is rejected.
func ParseTerm(content string) (Term, error) {
	var t Term
	if strings.TrimSpace(content) == "" {
		return t, fmt.Errorf("%w: no front matter found", ErrCannotParseTerm)
	}
	if err := yaml.Unmarshal([]byte(content), &t); err != nil {
		return t, fmt.Errorf("%w: %v", ErrCannotParseTerm, err)
	}
	t.fixLegacy()
	if t.ID == "" && t.TermID == "" && t.Term == "" {
		return t, fmt.Errorf("%w: none of id, termid or term is set", ErrCannotParseTerm)
	}
	return t, nil
}

// ParseMRG decodes a previously generated glossary.
func ParseMRG(content string) (MRG, error) {
	var mrg MRG
	if strings.TrimSpace(content) == "" {
		return mrg, fmt.Errorf("%w: empty document", ErrUnableToParseMRG)
	}
	if err := yaml.Unmarshal([]byte(content), &mrg); err != nil {
		return mrg, fmt.Errorf("%w: %v", ErrUnableToParseMRG, err)
	}
	for i := range mrg.Entries {
		mrg.Entries[i].fixLegacy()
	}
	return mrg, nil
}

// MarshalMRG encodes a glossary with two-space indentation.
func MarshalMRG(mrg MRG) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mrg); err != nil {
		return nil, fmt.Errorf("cannot convert MRG to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("cannot convert MRG to YAML: %w", err)
	}
	return buf.Bytes(), nil
}
