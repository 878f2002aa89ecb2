package pipeline

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/oukeidos/libretag/internal/apperrors"
	"github.com/oukeidos/libretag/internal/language"
	"github.com/oukeidos/libretag/internal/limit"
)

// Settings holds everything a translation run needs. It is not modified
// once a run starts.
type Settings struct {
	// API
	APIURL             string
	APIKey             string // optional, sent as api_key when set
	HTTPTimeoutSeconds int

	// Size limit
	CharLimit      int
	LimitBehavior  limit.Behavior
	CountGraphemes bool

	// Languages
	SourceLanguage string
	TargetLanguage string

	// Tagging
	TagOnSuccess bool
	TagOnFailure bool
}

const (
	DefaultHTTPTimeoutSeconds = 30
	DefaultCharLimit          = 10000
	MaxHTTPTimeoutSeconds     = 3600
)

// DefaultSettings mirrors the values offered when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeoutSeconds: DefaultHTTPTimeoutSeconds,
		CharLimit:          DefaultCharLimit,
		LimitBehavior:      limit.Ignore,
		SourceLanguage:     language.Auto,
		TargetLanguage:     "en",
	}
}

// Timeout bounds both text retrieval and the HTTP round trip.
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.HTTPTimeoutSeconds) * time.Second
}

// Counter returns the character counter for the size limit.
func (s Settings) Counter() limit.Counter {
	if s.CountGraphemes {
		return limit.Graphemes
	}
	return limit.Runes
}

// Normalize trims values, resolves language names to codes and clamps the
// timeout. It returns a note for every adjustment.
func (s Settings) Normalize() (Settings, []string) {
	var notes []string
	s.APIURL = strings.TrimSpace(s.APIURL)
	s.APIKey = strings.TrimSpace(s.APIKey)

	if b, err := limit.ParseBehavior(string(s.LimitBehavior)); err == nil {
		s.LimitBehavior = b
	}
	s.SourceLanguage, notes = resolveLanguage("source", s.SourceLanguage, notes)
	s.TargetLanguage, notes = resolveLanguage("target", s.TargetLanguage, notes)

	if s.HTTPTimeoutSeconds > MaxHTTPTimeoutSeconds {
		notes = append(notes, fmt.Sprintf("http timeout clamped from %d to %d seconds", s.HTTPTimeoutSeconds, MaxHTTPTimeoutSeconds))
		s.HTTPTimeoutSeconds = MaxHTTPTimeoutSeconds
	}
	return s, notes
}

func resolveLanguage(role, value string, notes []string) (string, []string) {
	trimmed := strings.TrimSpace(value)
	lang, ok := language.Resolve(trimmed)
	if !ok {
		return trimmed, notes
	}
	if lang.Code != trimmed {
		notes = append(notes, fmt.Sprintf("%s language %q resolved to %q", role, trimmed, lang.Code))
	}
	return lang.Code, notes
}

// Validate checks the settings before any record is touched. Every failure
// is a validation error.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.APIURL) == "" {
		return apperrors.Validation("Please provide a Libre Translate API URL.")
	}
	u, err := url.Parse(strings.TrimSpace(s.APIURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.Validation(fmt.Sprintf("API URL must be an http(s) URL, got %q", s.APIURL))
	}
	if s.HTTPTimeoutSeconds <= 0 {
		return apperrors.Validation(fmt.Sprintf("http timeout must be greater than 0, got %d", s.HTTPTimeoutSeconds))
	}
	if s.CharLimit < 0 {
		return apperrors.Validation(fmt.Sprintf("char limit must be 0 or greater, got %d", s.CharLimit))
	}
	if _, err := limit.ParseBehavior(string(s.LimitBehavior)); err != nil {
		return apperrors.Validation(err.Error())
	}
	if _, ok := language.Get(s.SourceLanguage); !ok {
		return apperrors.Validation(fmt.Sprintf("unsupported source language: %s", s.SourceLanguage))
	}
	if _, ok := language.Get(s.TargetLanguage); !ok {
		return apperrors.Validation(fmt.Sprintf("unsupported target language: %s", s.TargetLanguage))
	}
	if s.TargetLanguage == language.Auto {
		return apperrors.Validation("target language cannot be auto")
	}
	if s.SourceLanguage == s.TargetLanguage {
		return apperrors.Validation(fmt.Sprintf("source and target languages must be different (%s)", s.SourceLanguage))
	}
	return nil
}
