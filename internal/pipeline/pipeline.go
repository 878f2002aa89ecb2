// Package pipeline translates records one at a time and records the
// outcome of each as a tag.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oukeidos/libretag/internal/acquire"
	"github.com/oukeidos/libretag/internal/apperrors"
	"github.com/oukeidos/libretag/internal/libretranslate"
	"github.com/oukeidos/libretag/internal/limit"
	"github.com/oukeidos/libretag/internal/logger"
	"github.com/oukeidos/libretag/internal/outcome"
)

// Record identifies one item to translate. Label, when set, is shown next
// to the id in progress updates.
type Record struct {
	ID    string
	Label string
}

// Session is the exclusive write handle for the duration of a run.
type Session interface {
	OriginalText(ctx context.Context, id string) (string, error)
	AddTag(ctx context.Context, id, tag string) error
	RemoveTag(ctx context.Context, id, tag string) error
	ApplyTranslation(ctx context.Context, id, translated string) error
}

// Progress receives per-record updates. Advance returning false aborts the
// run before the record at index is processed.
type Progress interface {
	Advance(index int, label string) bool
	LogMessage(msg string)
	SetCompleted()
}

// Translator performs one remote translation; libretranslate.Client and
// libretranslate.MockClient implement it.
type Translator interface {
	Translate(ctx context.Context, req libretranslate.Request) (string, error)
}

const (
	msgGettingTextTooLong = "Getting original Text took too long"
	msgTryAgainLater      = "try again later?"
	msgNoResponse         = "No response received! Please try again later"
)

// Pipeline runs the per-record steps with fixed settings.
type Pipeline struct {
	Settings Settings
	// Translator is created from Settings when nil.
	Translator Translator
}

// New returns a Pipeline for settings. tr may be nil.
func New(settings Settings, tr Translator) *Pipeline {
	return &Pipeline{Settings: settings, Translator: tr}
}

// Run validates the settings, then processes records in order. It stops
// early without error when progress asks to abort. Per-record failures are
// counted in the result; only invalid settings or an unusable translator
// make Run fail.
func (p *Pipeline) Run(ctx context.Context, sess Session, records []Record, progress Progress) (Result, error) {
	settings, notes := p.Settings.Normalize()
	for _, note := range notes {
		logger.Warn("Settings normalized", "detail", note)
	}
	if err := settings.Validate(); err != nil {
		return Result{}, err
	}

	tr := p.Translator
	if tr == nil {
		client, err := libretranslate.NewClient(libretranslate.Options{
			URL:     settings.APIURL,
			Timeout: settings.Timeout(),
			APIKey:  settings.APIKey,
		})
		if err != nil {
			return Result{}, fmt.Errorf("failed to create translation client: %w", err)
		}
		tr = client
	}
	run := &Pipeline{Settings: settings, Translator: tr}

	result := Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Total:     len(records),
	}
	logger.Info("Starting translation run",
		"run_id", result.RunID,
		"records", len(records),
		"source", settings.SourceLanguage,
		"target", settings.TargetLanguage,
		"limit", settings.CharLimit,
		"behavior", string(settings.LimitBehavior),
	)

	for i, rec := range records {
		if !progress.Advance(i, progressLabel(rec)) {
			result.Aborted = true
			logger.Warn("Translation run aborted", "run_id", result.RunID, "processed", result.Processed)
			break
		}
		o, err := run.ProcessRecord(ctx, sess, rec, progress)
		if interrupted(ctx, err) {
			result.Aborted = true
			logger.Warn("Translation run interrupted", "run_id", result.RunID, "record", rec.ID, "processed", result.Processed)
			break
		}
		result.add(o)
		if err != nil {
			result.StoreErrors++
			logger.Error("Failed to update record", "record", rec.ID, "outcome", o.String(), "error", err)
		}
	}
	progress.SetCompleted()

	result.FinishedAt = time.Now().UTC()
	logger.Info("Translation run finished",
		"run_id", result.RunID,
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"truncated", result.Truncated,
		"aborted", result.Aborted,
	)
	return result, nil
}

// ProcessRecord translates one record. Settings must already be normalized
// and valid, and Translator must be set. The returned error is non-nil when
// the session rejected a tag or translation update, or when ctx was
// cancelled mid-record; in the latter case the record's tags are untouched.
func (p *Pipeline) ProcessRecord(ctx context.Context, sess Session, rec Record, progress Progress) (outcome.Outcome, error) {
	s := p.Settings
	tagger := outcome.Tagger{Store: sess, TagOnSuccess: s.TagOnSuccess, TagOnFailure: s.TagOnFailure}

	text, err := acquire.Text(ctx, s.Timeout(), func(ctx context.Context) (string, error) {
		return sess.OriginalText(ctx, rec.ID)
	})
	if err != nil {
		if ctx.Err() != nil {
			return outcome.Unchanged, ctx.Err()
		}
		if apperrors.Is(err, apperrors.KindTimeout) {
			progress.LogMessage(msgGettingTextTooLong)
		} else {
			progress.LogMessage(apperrors.PublicMessage(err))
		}
		logger.Warn("Original text unavailable", "record", rec.ID, "error", err)
		return outcome.FailureGettingText, tagger.Apply(ctx, rec.ID, outcome.FailureGettingText)
	}
	if text == "" {
		logger.Debug("Record has no text", "record", rec.ID)
		return outcome.Unchanged, nil
	}

	counter := s.Counter()
	length := counter.Len(text)
	truncated := false
	switch d := limit.Decide(length, s.CharLimit, s.LimitBehavior); d {
	case limit.SkipText:
		err := tagger.Apply(ctx, rec.ID, outcome.Skipped)
		progress.LogMessage(limit.Message(length, s.CharLimit, d))
		return outcome.Skipped, err
	case limit.TruncateText:
		text = counter.Truncate(text, s.CharLimit)
		progress.LogMessage(limit.Message(length, s.CharLimit, d))
		truncated = true
	}

	logger.Debug("Translating record", "record", rec.ID, "chars", counter.Len(text))
	translated, err := p.Translator.Translate(ctx, libretranslate.Request{
		Text:   text,
		Source: s.SourceLanguage,
		Target: s.TargetLanguage,
	})
	if err != nil && ctx.Err() != nil {
		return outcome.Unchanged, ctx.Err()
	}

	// Tags change only once the call has concluded, so an interrupted record
	// keeps whatever it had before.
	if truncated {
		if applyErr := tagger.Apply(ctx, rec.ID, outcome.Truncated); applyErr != nil {
			return outcome.Truncated, applyErr
		}
	} else if clearErr := tagger.Clear(ctx, rec.ID); clearErr != nil {
		return outcome.Unchanged, clearErr
	}

	if err != nil {
		progress.LogMessage(failureMessage(err))
		if apperrors.Is(err, apperrors.KindServer) {
			progress.LogMessage(msgTryAgainLater)
		}
		kind, _ := apperrors.KindOf(err)
		logger.Warn("Translation failed", "record", rec.ID, "kind", string(kind), "error", err)
		applyErr := tagger.Apply(ctx, rec.ID, outcome.Failure)
		progress.LogMessage(msgNoResponse)
		return outcome.Failure, applyErr
	}

	result := outcome.Truncated
	if !truncated {
		result = outcome.Success
		if err := tagger.Apply(ctx, rec.ID, outcome.Success); err != nil {
			return result, err
		}
	}
	if translated != "" {
		if err := sess.ApplyTranslation(ctx, rec.ID, translated); err != nil {
			return result, fmt.Errorf("apply translation: %w", err)
		}
	}
	return result, nil
}

func progressLabel(rec Record) string {
	if rec.Label == "" {
		return "Item GUID: " + rec.ID
	}
	return "Item GUID: " + rec.ID + " (" + rec.Label + ")"
}

func interrupted(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err())
}

func failureMessage(err error) string {
	if _, ok := apperrors.KindOf(err); ok {
		return apperrors.PublicMessage(err)
	}
	return "ERROR: " + err.Error()
}
