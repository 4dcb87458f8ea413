// Package report collects per-file conversion results and renders them for the console.
package report

import (
	"routeconv/internal/diff"
)

// Status is the outcome vocabulary for one file.
type Status string

const (
	StatusSkip             Status = "skip"
	StatusAlreadyConverted Status = "already-converted"
	StatusConverting       Status = "converting"
	StatusSuccess          Status = "success"
	StatusUnchanged        Status = "unchanged"
	StatusReadError        Status = "read-error"
	StatusFailed           Status = "failed"
)

// FileResult is the result of processing one file.
type FileResult struct {
	Path       string
	RelPath    string
	Status     Status
	Err        error
	Notes      []string
	BackupPath string
	Diff       *diff.FileDiff
}

// Report aggregates one run.
type Report struct {
	RunID  string
	DryRun bool

	Found             int // route files located
	NeedingConversion int // candidates handed to the rewriter
	Results           []FileResult
}

// Add records r.
func (rep *Report) Add(r FileResult) {
	rep.Results = append(rep.Results, r)
}

// Converted counts successful conversions.
func (rep *Report) Converted() int {
	return len(rep.filter(StatusSuccess))
}

// Failures returns the files whose conversion failed.
func (rep *Report) Failures() []FileResult {
	return rep.filter(StatusFailed)
}

// ReadErrors returns the files that could not be read.
func (rep *Report) ReadErrors() []FileResult {
	return rep.filter(StatusReadError)
}

// Flagged returns converted or unchanged files that carry review notes.
func (rep *Report) Flagged() []FileResult {
	var out []FileResult
	for _, r := range rep.Results {
		if len(r.Notes) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// HasFailures reports whether any file failed or could not be read.
func (rep *Report) HasFailures() bool {
	return len(rep.Failures()) > 0 || len(rep.ReadErrors()) > 0
}

func (rep *Report) filter(s Status) []FileResult {
	var out []FileResult
	for _, r := range rep.Results {
		if r.Status == s {
			out = append(out, r)
		}
	}
	return out
}
