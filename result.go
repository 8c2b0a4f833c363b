package mcscrape

import (
	"context"
	"time"
)

// Stage is a step of the per-URL pipeline.
type Stage string

// Pipeline stages in execution order. StageFailed is reachable from any
// non-terminal stage.
const (
	StagePending     Stage = "pending"
	StageFetching    Stage = "fetching"
	StageNormalizing Stage = "normalizing"
	StageSegmenting  Stage = "segmenting"
	StageClassifying Stage = "classifying"
	StageRendering   Stage = "rendering"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

var nextStage = map[Stage]Stage{
	StagePending:     StageFetching,
	StageFetching:    StageNormalizing,
	StageNormalizing: StageSegmenting,
	StageSegmenting:  StageClassifying,
	StageClassifying: StageRendering,
	StageRendering:   StageDone,
}

// IsTerminal reports whether no transition leaves s.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

// CanTransition reports whether the pipeline may move from s to next.
func (s Stage) CanTransition(next Stage) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	return nextStage[s] == next
}

// ErrorInfo describes why a URL failed.
type ErrorInfo struct {
	// Kind is the error code, e.g. ETIMEOUT.
	Kind string `json:"kind"`

	// Stage is the pipeline stage that was running when the error occurred.
	Stage Stage `json:"stage"`

	Message string `json:"message"`
}

// Class returns the error family of the kind: fetch, classification,
// render or internal.
func (e *ErrorInfo) Class() string {
	return ErrorClass(e.Kind)
}

// NewErrorInfo builds an ErrorInfo from err.
func NewErrorInfo(stage Stage, err error) *ErrorInfo {
	return &ErrorInfo{
		Kind:    ErrorCode(err),
		Stage:   stage,
		Message: ErrorMessage(err),
	}
}

// ScrapeResult is the outcome of processing one URL.
// Exactly one of the content fields or Error is meaningful: failed results
// carry empty content.
type ScrapeResult struct {
	URL        string    `json:"url"`
	FinalURL   string    `json:"finalUrl,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
	FetchedAt  time.Time `json:"fetchedAt,omitzero"`
	Stage      Stage     `json:"stage"`

	Metadata            *Metadata       `json:"metadata,omitempty"`
	MainContentHTML     string          `json:"mainContentHtml"`
	MainContentMarkdown string          `json:"mainContentMarkdown"`
	NodeTree            *Tree           `json:"nodeTree,omitempty"`
	Links               []ExtractedLink `json:"links"`
	Outline             []Section       `json:"outline,omitempty"`
	ContentHash         string          `json:"contentHash,omitempty"`
	Classification      *Classification `json:"classification,omitempty"`

	Error *ErrorInfo `json:"error,omitempty"`
}

// Failed reports whether the URL failed.
func (r *ScrapeResult) Failed() bool {
	return r.Error != nil
}

// ResultWriter persists per-URL results.
type ResultWriter interface {
	WriteResult(ctx context.Context, result *ScrapeResult) error
}

// Observer receives pipeline progress events.
// Implementations must be safe for concurrent use.
type Observer interface {
	// StageChanged is called on every stage transition of a URL.
	StageChanged(url string, from, to Stage)

	// ResultReady is called once per URL with its final result.
	ResultReady(result *ScrapeResult, elapsed time.Duration)
}
