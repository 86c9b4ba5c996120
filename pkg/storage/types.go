package storage

import (
	"time"

	"github.com/tev2-toolkit/mrgen/pkg/model"
)

// Run is one recorded generation run.
type Run struct {
	ID           int64     `json:"id"`
	ScopeTag     string    `json:"scopetag"`
	ScopeDir     string    `json:"scopedir"`
	VersionTag   string    `json:"vsntag"`
	OutputPath   string    `json:"output_path"`
	DryRun       bool      `json:"dry_run"`
	EntryCount   int       `json:"entry_count"`
	WarningCount int       `json:"warning_count"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`

	// Only set when recording a run.
	Entries  []RunEntry `json:"-"`
	Warnings []string   `json:"-"`
}

// RunEntry is the identity of one glossary entry produced by a run.
type RunEntry struct {
	TermID   string `json:"termid"`
	ScopeTag string `json:"scopetag"`
	Locator  string `json:"locator,omitempty"`
}

func (e RunEntry) key() string {
	return e.ScopeTag + ":" + e.TermID
}

// Change is a glossary entry that appeared or disappeared between two runs.
type Change struct {
	Entry      RunEntry
	ChangeType string // added | removed
}

// ScopeStats summarizes the runs recorded for one scope tag.
type ScopeStats struct {
	ScopeTag     string
	RunCount     int
	VersionCount int
	EntryCount   int // entries produced by the latest run
}

// NewRun describes a finished generation of mrg for recording. Entries are
// recorded under the given identity field.
func NewRun(scopeDir string, mrg model.MRG, identity string, warnings []string, outputPath string, dryRun bool, startedAt time.Time) Run {
	entries := make([]RunEntry, 0, len(mrg.Entries))
	for _, e := range mrg.Entries {
		entries = append(entries, RunEntry{TermID: e.Identity(identity), ScopeTag: e.ScopeTag, Locator: e.Locator})
	}
	return Run{
		ScopeTag:     mrg.Terminology.ScopeTag,
		ScopeDir:     scopeDir,
		VersionTag:   mrg.Terminology.VersionTag,
		OutputPath:   outputPath,
		DryRun:       dryRun,
		EntryCount:   len(entries),
		WarningCount: len(warnings),
		StartedAt:    startedAt,
		FinishedAt:   time.Now(),
		Entries:      entries,
		Warnings:     warnings,
	}
}
