// Package outcome records how translation of a record concluded, as one
// mutually exclusive tag in the "Translations|" namespace.
package outcome

import (
	"context"
	"fmt"
	"strings"
)

// Outcome is the result of processing one record.
type Outcome int

const (
	// Unchanged means the record had no text; its tags were left alone.
	Unchanged Outcome = iota
	Success
	Failure
	Skipped
	Truncated
	FailureGettingText
)

// Namespace prefixes every outcome tag.
const Namespace = "Translations|"

var names = map[Outcome]string{
	Unchanged:          "unchanged",
	Success:            "success",
	Failure:            "failure",
	Skipped:            "skipped",
	Truncated:          "truncated",
	FailureGettingText: "failuregettingtext",
}

// Tagged lists the outcomes that map to a tag, in display order.
var Tagged = []Outcome{Success, Failure, Skipped, Truncated, FailureGettingText}

func (o Outcome) String() string {
	if n, ok := names[o]; ok {
		return n
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Tag returns the store tag for o. Unchanged has none.
func Tag(o Outcome) (string, bool) {
	if o == Unchanged {
		return "", false
	}
	n, ok := names[o]
	if !ok {
		return "", false
	}
	return Namespace + n, true
}

// AllTags returns every outcome tag.
func AllTags() []string {
	tags := make([]string, 0, len(Tagged))
	for _, o := range Tagged {
		tag, _ := Tag(o)
		tags = append(tags, tag)
	}
	return tags
}

// Parse maps a store tag back to its outcome.
func Parse(tag string) (Outcome, bool) {
	name, ok := strings.CutPrefix(tag, Namespace)
	if !ok {
		return Unchanged, false
	}
	for _, o := range Tagged {
		if names[o] == name {
			return o, true
		}
	}
	return Unchanged, false
}

// TagStore is the part of a record store the tagger needs.
type TagStore interface {
	AddTag(ctx context.Context, id, tag string) error
	RemoveTag(ctx context.Context, id, tag string) error
}

// Tagger keeps at most one outcome tag on a record.
//
// Success and failure tags are opt-in; skipped, truncated and
// failuregettingtext are always recorded.
type Tagger struct {
	Store        TagStore
	TagOnSuccess bool
	TagOnFailure bool
}

// Enabled reports whether Apply would write a tag for o.
func (t Tagger) Enabled(o Outcome) bool {
	switch o {
	case Success:
		return t.TagOnSuccess
	case Failure:
		return t.TagOnFailure
	case Skipped, Truncated, FailureGettingText:
		return true
	default:
		return false
	}
}

// Clear removes every outcome tag from the record.
func (t Tagger) Clear(ctx context.Context, id string) error {
	for _, tag := range AllTags() {
		if err := t.Store.RemoveTag(ctx, id, tag); err != nil {
			return fmt.Errorf("remove tag %s: %w", tag, err)
		}
	}
	return nil
}

// Apply replaces any outcome tag on the record with the tag for o. It is a
// no-op when o is not enabled, so a disabled outcome never erases an
// earlier one.
func (t Tagger) Apply(ctx context.Context, id string, o Outcome) error {
	if !t.Enabled(o) {
		return nil
	}
	if err := t.Clear(ctx, id); err != nil {
		return err
	}
	tag, _ := Tag(o)
	if err := t.Store.AddTag(ctx, id, tag); err != nil {
		return fmt.Errorf("add tag %s: %w", tag, err)
	}
	return nil
}
