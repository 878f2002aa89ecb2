// Package ingest turns files into records and writes translated subtitle
// files back out.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/asticode/go-astisub"
	"github.com/oukeidos/libretag/internal/store"
)

// SubtitleExts lists the extensions read through astisub.
var SubtitleExts = []string{".srt", ".vtt", ".ssa", ".ass", ".ttml", ".stl"}

// IsSubtitle reports whether path has a subtitle extension.
func IsSubtitle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SubtitleExts {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads path into records. A subtitle file yields one record per cue
// in file order, cues with no text included. Any other file yields a single
// record holding its whole content.
func Load(path string) ([]store.NewRecord, error) {
	if IsSubtitle(path) {
		subs, err := astisub.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse subtitle file: %w", err)
		}
		if len(subs.Items) == 0 {
			return nil, fmt.Errorf("no subtitles found in %s", path)
		}
		return fromAstisub(path, subs), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s is not valid UTF-8 text", path)
	}
	return []store.NewRecord{{
		Name:   filepath.Base(path),
		Source: path,
		Text:   string(data),
	}}, nil
}

func fromAstisub(path string, subs *astisub.Subtitles) []store.NewRecord {
	base := filepath.Base(path)
	recs := make([]store.NewRecord, 0, len(subs.Items))
	for i, item := range subs.Items {
		lines := make([]string, 0, len(item.Lines))
		for _, l := range item.Lines {
			lines = append(lines, l.String())
		}
		recs = append(recs, store.NewRecord{
			Name:   fmt.Sprintf("%s #%d", base, i+1),
			Source: path,
			Text:   strings.TrimSpace(strings.Join(lines, "\n")),
		})
	}
	return recs
}
