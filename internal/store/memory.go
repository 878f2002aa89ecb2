package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a Store held in process memory. WithWriteAccess works on a copy
// that replaces the live state only when fn succeeds.
type Memory struct {
	mu    sync.Mutex
	state memState
	now   func() time.Time
}

var _ Store = (*Memory)(nil)

type memState struct {
	order   []string
	next    int
	records map[string]Record
	tags    map[string]map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		state: memState{records: map[string]Record{}, tags: map[string]map[string]bool{}},
		now:   time.Now,
	}
}

func (st memState) clone() memState {
	c := memState{
		order:   append([]string(nil), st.order...),
		next:    st.next,
		records: make(map[string]Record, len(st.records)),
		tags:    make(map[string]map[string]bool, len(st.tags)),
	}
	for k, v := range st.records {
		c.records[k] = v
	}
	for id, set := range st.tags {
		cs := make(map[string]bool, len(set))
		for t := range set {
			cs[t] = true
		}
		c.tags[id] = cs
	}
	return c
}

func (m *Memory) Import(_ context.Context, recs []NewRecord) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.insert(recs), nil
}

func (m *Memory) ReplaceSource(_ context.Context, source string, recs []NewRecord) ([]string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	kept := m.state.order[:0]
	for _, id := range m.state.order {
		if m.state.records[id].Source == source {
			delete(m.state.records, id)
			delete(m.state.tags, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.state.order = kept
	for i := range recs {
		recs[i].Source = source
	}
	return m.state.insert(recs), removed, nil
}

func (st *memState) insert(recs []NewRecord) []string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		id := uuid.NewString()
		st.records[id] = Record{
			ID:           id,
			Name:         r.Name,
			Source:       r.Source,
			Position:     st.next,
			OriginalText: r.Text,
		}
		st.next++
		st.order = append(st.order, id)
		ids = append(ids, id)
	}
	return ids
}

func (m *Memory) Records(_ context.Context, ids ...string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Record
	for _, id := range m.state.order {
		if len(ids) == 0 || want[id] {
			out = append(out, m.state.records[id])
		}
	}
	if err := checkMissing(ids, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Memory) Tags(_ context.Context, id string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tags []string
	for t := range m.state.tags[id] {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

func (m *Memory) TagCounts(_ context.Context, prefix string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, set := range m.state.tags {
		for t := range set {
			if strings.HasPrefix(t, prefix) {
				counts[t]++
			}
		}
	}
	return counts, nil
}

func (m *Memory) Reset(_ context.Context, prefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, set := range m.state.tags {
		for t := range set {
			if strings.HasPrefix(t, prefix) {
				delete(set, t)
				removed++
			}
		}
	}
	for id, r := range m.state.records {
		r.TranslatedText = ""
		r.TranslatedAt = time.Time{}
		m.state.records[id] = r
	}
	return removed, nil
}

func (m *Memory) WithWriteAccess(_ context.Context, fn func(Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := &memSession{state: m.state.clone(), now: m.now}
	if err := fn(sess); err != nil {
		return err
	}
	m.state = sess.state
	return nil
}

func (m *Memory) Close() error { return nil }

// memSession locks because an abandoned text fetch may still be running
// when the next call arrives.
type memSession struct {
	mu    sync.Mutex
	state memState
	now   func() time.Time
}

func (s *memSession) lookup(id string) (Record, error) {
	r, ok := s.state.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, nil
}

func (s *memSession) OriginalText(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.lookup(id)
	return r.OriginalText, err
}

func (s *memSession) AddTag(_ context.Context, id, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(id); err != nil {
		return err
	}
	if s.state.tags[id] == nil {
		s.state.tags[id] = map[string]bool{}
	}
	s.state.tags[id][tag] = true
	return nil
}

func (s *memSession) RemoveTag(_ context.Context, id, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state.tags[id], tag)
	return nil
}

func (s *memSession) ApplyTranslation(_ context.Context, id, translated string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.lookup(id)
	if err != nil {
		return err
	}
	r.TranslatedText = translated
	r.TranslatedAt = s.now().UTC()
	s.state.records[id] = r
	return nil
}
