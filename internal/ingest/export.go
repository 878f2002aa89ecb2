package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/asticode/go-astisub"
	"github.com/oukeidos/libretag/internal/files"
)

// Export rewrites the subtitle file at source with translations, one entry
// per cue in file order. An empty translation keeps the original cue text.
// The result is written atomically to out in the format implied by its
// extension.
func Export(source, out string, translations []string) error {
	subs, err := astisub.OpenFile(source)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	if len(subs.Items) != len(translations) {
		return fmt.Errorf("%s has %d cues but %d records were imported from it", source, len(subs.Items), len(translations))
	}
	for i, item := range subs.Items {
		if translations[i] == "" {
			continue
		}
		item.Lines = item.Lines[:0]
		for _, l := range strings.Split(translations[i], "\n") {
			item.Lines = append(item.Lines, astisub.Line{Items: []astisub.LineItem{{Text: l}}})
		}
	}

	var buf bytes.Buffer
	if err := write(subs, &buf, strings.ToLower(filepath.Ext(out))); err != nil {
		return fmt.Errorf("failed to write to buffer: %w", err)
	}
	return files.AtomicWrite(out, buf.Bytes(), 0o644)
}

func write(subs *astisub.Subtitles, buf *bytes.Buffer, ext string) error {
	switch ext {
	case ".vtt":
		return subs.WriteToWebVTT(buf)
	case ".ssa", ".ass":
		if subs.Metadata == nil {
			subs.Metadata = &astisub.Metadata{SSAScriptType: "v4.00+"}
		}
		return subs.WriteToSSA(buf)
	case ".ttml":
		return subs.WriteToTTML(buf)
	case ".stl":
		return subs.WriteToSTL(buf)
	default:
		return subs.WriteToSRT(buf)
	}
}

// OutputPath derives "<name>_<lang><ext>" next to source. When that file
// exists a numbered, then a random, suffix is appended.
func OutputPath(source, lang string) (string, error) {
	ext := filepath.Ext(source)
	return files.FreePath(strings.TrimSuffix(source, ext) + "_" + lang + ext)
}
