package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oukeidos/libretag/internal/files"
	"github.com/oukeidos/libretag/internal/outcome"
)

// Result summarizes a run.
type Result struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Total     int `json:"total"`
	Processed int `json:"processed"`

	Succeeded         int `json:"succeeded"`
	Failed            int `json:"failed"`
	Skipped           int `json:"skipped"`
	Truncated         int `json:"truncated"`
	FailedGettingText int `json:"failed_getting_text"`
	Unchanged         int `json:"unchanged"`

	StoreErrors int  `json:"store_errors"`
	Aborted     bool `json:"aborted"`
}

func (r *Result) add(o outcome.Outcome) {
	r.Processed++
	switch o {
	case outcome.Success:
		r.Succeeded++
	case outcome.Failure:
		r.Failed++
	case outcome.Skipped:
		r.Skipped++
	case outcome.Truncated:
		r.Truncated++
	case outcome.FailureGettingText:
		r.FailedGettingText++
	default:
		r.Unchanged++
	}
}

// WriteReport stores r as indented JSON at path, replacing any previous file
// atomically.
func WriteReport(path string, r Result) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := files.AtomicWrite(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
