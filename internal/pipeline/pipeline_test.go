package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/oukeidos/libretag/internal/apperrors"
	"github.com/oukeidos/libretag/internal/libretranslate"
	"github.com/oukeidos/libretag/internal/limit"
	"github.com/oukeidos/libretag/internal/store"
)

type recordingProgress struct {
	labels    []string
	messages  []string
	abortAt   int
	completed bool
}

func newProgress() *recordingProgress { return &recordingProgress{abortAt: -1} }

func (p *recordingProgress) Advance(index int, label string) bool {
	if index == p.abortAt {
		return false
	}
	p.labels = append(p.labels, label)
	return true
}

func (p *recordingProgress) LogMessage(msg string) { p.messages = append(p.messages, msg) }
func (p *recordingProgress) SetCompleted()         { p.completed = true }

func (p *recordingProgress) logged(msg string) bool {
	for _, m := range p.messages {
		if m == msg {
			return true
		}
	}
	return false
}

func testSettings() Settings {
	s := DefaultSettings()
	s.APIURL = "http://translate.test/translate"
	s.TargetLanguage = "de"
	s.TagOnSuccess = true
	s.TagOnFailure = true
	return s
}

func seed(t *testing.T, st store.Store, texts ...string) []Record {
	t.Helper()
	recs := make([]store.NewRecord, len(texts))
	for i, text := range texts {
		recs[i] = store.NewRecord{Name: "r", Text: text}
	}
	ids, err := st.Import(context.Background(), recs)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	out := make([]Record, len(ids))
	for i, id := range ids {
		out[i] = Record{ID: id, Label: "r"}
	}
	return out
}

func run(t *testing.T, st store.Store, s Settings, tr Translator, records []Record, progress Progress) Result {
	t.Helper()
	var res Result
	err := st.WithWriteAccess(context.Background(), func(sess store.Session) error {
		var err error
		res, err = New(s, tr).Run(context.Background(), sess, records, progress)
		return err
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return res
}

func tags(t *testing.T, st store.Store, id string) []string {
	t.Helper()
	got, err := st.Tags(context.Background(), id)
	if err != nil {
		t.Fatalf("Tags() error = %v", err)
	}
	return got
}

func translation(t *testing.T, st store.Store, id string) string {
	t.Helper()
	recs, err := st.Records(context.Background(), id)
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	return recs[0].TranslatedText
}

func TestRun_SuccessStoresTranslation(t *testing.T) {
	st := store.NewMemory()
	recs := seed(t, st, "Hello world")
	mock := &libretranslate.MockClient{Response: "Hallo Welt"}
	progress := newProgress()

	res := run(t, st, testSettings(), mock, recs, progress)

	if got := tags(t, st, recs[0].ID); !reflect.DeepEqual(got, []string{"Translations|success"}) {
		t.Fatalf("tags = %v", got)
	}
	if got := translation(t, st, recs[0].ID); got != "Hallo Welt" {
		t.Fatalf("translation = %q", got)
	}
	req := mock.Requests()
	if len(req) != 1 || req[0] != (libretranslate.Request{Text: "Hello world", Source: "auto", Target: "de"}) {
		t.Fatalf("requests = %+v", req)
	}
	if res.Succeeded != 1 || res.Processed != 1 || res.RunID == "" {
		t.Fatalf("result = %+v", res)
	}
	if !progress.completed {
		t.Fatal("SetCompleted not called")
	}
	if want := []string{"Item GUID: " + recs[0].ID + " (r)"}; !reflect.DeepEqual(progress.labels, want) {
		t.Fatalf("labels = %v, want %v", progress.labels, want)
	}
}

func TestRun_LimitBehaviors(t *testing.T) {
	long := strings.Repeat("a", 12000)
	tests := []struct {
		name      string
		behavior  limit.Behavior
		wantTags  []string
		wantSent  int // characters sent; -1 for no call
		wantLog   string
		wantCount func(Result) int
	}{
		{"ignore", limit.Ignore, []string{"Translations|success"}, 12000, "", func(r Result) int { return r.Succeeded }},
		{"skip", limit.Skip, []string{"Translations|skipped"}, -1, "Text length 12.000 > Limit 10.000 -> Skipped", func(r Result) int { return r.Skipped }},
		{"truncate", limit.Truncate, []string{"Translations|truncated"}, 10001, "Text length 12.000 > Limit 10.000 -> Truncated", func(r Result) int { return r.Truncated }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemory()
			recs := seed(t, st, long)
			mock := &libretranslate.MockClient{Response: "translated"}
			progress := newProgress()
			s := testSettings()
			s.LimitBehavior = tt.behavior

			res := run(t, st, s, mock, recs, progress)

			if got := tags(t, st, recs[0].ID); !reflect.DeepEqual(got, tt.wantTags) {
				t.Fatalf("tags = %v, want %v", got, tt.wantTags)
			}
			req := mock.Requests()
			if tt.wantSent < 0 {
				if len(req) != 0 {
					t.Fatalf("expected no remote call, got %d", len(req))
				}
			} else if len(req) != 1 || utf8.RuneCountInString(req[0].Text) != tt.wantSent {
				t.Fatalf("sent %d requests; want one with %d characters", len(req), tt.wantSent)
			}
			if tt.wantLog != "" && !progress.logged(tt.wantLog) {
				t.Fatalf("messages = %v, want %q", progress.messages, tt.wantLog)
			}
			if tt.wantCount(res) != 1 {
				t.Fatalf("result = %+v", res)
			}
		})
	}
}

func TestRun_AtLimitIsNotTruncated(t *testing.T) {
	st := store.NewMemory()
	recs := seed(t, st, strings.Repeat("b", 10000))
	mock := &libretranslate.MockClient{Response: "ok"}
	s := testSettings()
	s.LimitBehavior = limit.Truncate

	run(t, st, s, mock, recs, newProgress())

	if got := utf8.RuneCountInString(mock.Requests()[0].Text); got != 10000 {
		t.Fatalf("sent %d characters, want 10000", got)
	}
	if got := tags(t, st, recs[0].ID); !reflect.DeepEqual(got, []string{"Translations|success"}) {
		t.Fatalf("tags = %v", got)
	}
}

func TestRun_ServerUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	for _, tagOnFailure := range []bool{true, false} {
		st := store.NewMemory()
		recs := seed(t, st, "Hello")
		progress := newProgress()
		s := testSettings()
		s.APIURL = server.URL + "/translate"
		s.TagOnFailure = tagOnFailure

		res := run(t, st, s, nil, recs, progress)

		for _, msg := range []string{"ERROR: 503 Service Unavailable", "try again later?", "No response received! Please try again later"} {
			if !progress.logged(msg) {
				t.Errorf("tagOnFailure=%v: missing message %q in %v", tagOnFailure, msg, progress.messages)
			}
		}
		got := tags(t, st, recs[0].ID)
		if tagOnFailure && !reflect.DeepEqual(got, []string{"Translations|failure"}) {
			t.Errorf("tags = %v, want failure", got)
		}
		if !tagOnFailure && len(got) != 0 {
			t.Errorf("tags = %v, want none", got)
		}
		if res.Failed != 1 {
			t.Errorf("result = %+v", res)
		}
	}
}

func TestRun_NetworkErrorHasNoRetryHint(t *testing.T) {
	st := store.NewMemory()
	recs := seed(t, st, "Hello")
	progress := newProgress()
	mock := &libretranslate.MockClient{Error: apperrors.New(apperrors.KindNetwork, "ERROR: connection refused", nil)}

	run(t, st, testSettings(), mock, recs, progress)

	if !progress.logged("ERROR: connection refused") || progress.logged("try again later?") {
		t.Fatalf("messages = %v", progress.messages)
	}
}

func TestRun_TruncatedThenFailureKeepsTruncatedWhenFailureUntagged(t *testing.T) {
	st := store.NewMemory()
	recs := seed(t, st, strings.Repeat("x", 20))
	s := testSettings()
	s.CharLimit = 5
	s.LimitBehavior = limit.Truncate
	s.TagOnFailure = false
	mock := &libretranslate.MockClient{Error: apperrors.New(apperrors.KindServer, "ERROR: 500 Internal Server Error", nil)}

	run(t, st, s, mock, recs, newProgress())

	if got := tags(t, st, recs[0].ID); !reflect.DeepEqual(got, []string{"Translations|truncated"}) {
		t.Fatalf("tags = %v", got)
	}
}

type slowSession struct {
	store.Session
}

func (slowSession) OriginalText(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRun_AcquisitionTimeout(t *testing.T) {
	st := store.NewMemory()
	recs := seed(t, st, "Hello")
	mock := &libretranslate.MockClient{Response: "x"}
	progress := newProgress()
	s := testSettings()
	s.HTTPTimeoutSeconds = 1

	var res Result
	err := st.WithWriteAccess(context.Background(), func(sess store.Session) error {
		sess.AddTag(context.Background(), recs[0].ID, "Translations|success")
		var err error
		res, err = New(s, mock).Run(context.Background(), slowSession{sess}, recs, progress)
		return err
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := tags(t, st, recs[0].ID); !reflect.DeepEqual(got, []string{"Translations|failuregettingtext"}) {
		t.Fatalf("tags = %v", got)
	}
	if len(mock.Requests()) != 0 {
		t.Fatal("no remote call expected after acquisition timeout")
	}
	if !progress.logged("Getting original Text took too long") {
		t.Fatalf("messages = %v", progress.messages)
	}
	if res.FailedGettingText != 1 {
		t.Fatalf("result = %+v", res)
	}
}

func TestRun_EmptyTextLeavesTagsAlone(t *testing.T) {
	st := store.NewMemory()
	recs := seed(t, st, "")
	st.WithWriteAccess(context.Background(), func(sess store.Session) error {
		return sess.AddTag(context.Background(), recs[0].ID, "Translations|failure")
	})
	mock := &libretranslate.MockClient{Response: "x"}

	res := run(t, st, testSettings(), mock, recs, newProgress())

	if got := tags(t, st, recs[0].ID); !reflect.DeepEqual(got, []string{"Translations|failure"}) {
		t.Fatalf("tags = %v", got)
	}
	if len(mock.Requests()) != 0 || res.Unchanged != 1 {
		t.Fatalf("requests = %d, result = %+v", len(mock.Requests()), res)
	}
}

func TestRun_EmptyTranslationIsNotApplied(t *testing.T) {
	st := store.NewMemory()
	recs := seed(t, st, "Hello")

	run(t, st, testSettings(), &libretranslate.MockClient{Response: ""}, recs, newProgress())

	if got := tags(t, st, recs[0].ID); !reflect.DeepEqual(got, []string{"Translations|success"}) {
		t.Fatalf("tags = %v", got)
	}
	if got := translation(t, st, recs[0].ID); got != "" {
		t.Fatalf("translation = %q, want none", got)
	}
}

func TestRun_OutcomeReplacesPrevious(t *testing.T) {
	st := store.NewMemory()
	recs := seed(t, st, strings.Repeat("z", 50))
	mock := &libretranslate.MockClient{Response: "ok"}

	s := testSettings()
	s.CharLimit = 10
	s.LimitBehavior = limit.Skip
	run(t, st, s, mock, recs, newProgress())

	s.LimitBehavior = limit.Ignore
	run(t, st, s, mock, recs, newProgress())
	run(t, st, s, mock, recs, newProgress())

	if got := tags(t, st, recs[0].ID); !reflect.DeepEqual(got, []string{"Translations|success"}) {
		t.Fatalf("tags = %v", got)
	}
}

func TestRun_Abort(t *testing.T) {
	st := store.NewMemory()
	recs := seed(t, st, "one", "two", "three")
	mock := &libretranslate.MockClient{Response: "ok"}
	progress := newProgress()
	progress.abortAt = 1

	res := run(t, st, testSettings(), mock, recs, progress)

	if !res.Aborted || res.Processed != 1 || len(mock.Requests()) != 1 {
		t.Fatalf("result = %+v, requests = %d", res, len(mock.Requests()))
	}
	if len(tags(t, st, recs[1].ID)) != 0 || len(tags(t, st, recs[2].ID)) != 0 {
		t.Fatal("records after the abort must be untouched")
	}
	if got := translation(t, st, recs[0].ID); got != "ok" {
		t.Fatalf("first record translation = %q, want it kept after abort", got)
	}
	if !progress.completed {
		t.Fatal("SetCompleted not called after abort")
	}
}

func TestRun_InterruptedRecordKeepsTags(t *testing.T) {
	st := store.NewMemory()
	recs := seed(t, st, "one", "two")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mock := &libretranslate.MockClient{Func: func(libretranslate.Request) (string, error) {
		cancel()
		return "", apperrors.New(apperrors.KindNetwork, "ERROR: context canceled", context.Canceled)
	}}
	progress := newProgress()

	var res Result
	err := st.WithWriteAccess(context.Background(), func(sess store.Session) error {
		if err := sess.AddTag(context.Background(), recs[0].ID, "Translations|skipped"); err != nil {
			return err
		}
		var err error
		res, err = New(testSettings(), mock).Run(ctx, sess, recs, progress)
		return err
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := tags(t, st, recs[0].ID); !reflect.DeepEqual(got, []string{"Translations|skipped"}) {
		t.Fatalf("tags = %v, want the earlier tag kept", got)
	}
	if len(tags(t, st, recs[1].ID)) != 0 || len(mock.Requests()) != 1 {
		t.Fatalf("second record touched after interrupt, requests = %d", len(mock.Requests()))
	}
	if !res.Aborted || res.Processed != 0 || res.Failed != 0 || res.StoreErrors != 0 {
		t.Fatalf("result = %+v", res)
	}
	if progress.logged("No response received! Please try again later") {
		t.Fatalf("interrupt reported as a failure: %v", progress.messages)
	}
}

type cancellingSession struct {
	store.Session
	cancel context.CancelFunc
}

func (s cancellingSession) OriginalText(ctx context.Context, _ string) (string, error) {
	s.cancel()
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRun_InterruptedAcquisitionIsNotTagged(t *testing.T) {
	st := store.NewMemory()
	recs := seed(t, st, "Hello")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mock := &libretranslate.MockClient{Response: "x"}

	var res Result
	err := st.WithWriteAccess(context.Background(), func(sess store.Session) error {
		var err error
		res, err = New(testSettings(), mock).Run(ctx, cancellingSession{sess, cancel}, recs, newProgress())
		return err
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := tags(t, st, recs[0].ID); len(got) != 0 {
		t.Fatalf("tags = %v, want none", got)
	}
	if !res.Aborted || res.FailedGettingText != 0 || len(mock.Requests()) != 0 {
		t.Fatalf("result = %+v, requests = %d", res, len(mock.Requests()))
	}
}

func TestProgressLabel(t *testing.T) {
	tests := []struct {
		rec  Record
		want string
	}{
		{Record{ID: "abc"}, "Item GUID: abc"},
		{Record{ID: "abc", Label: "movie.srt #3"}, "Item GUID: abc (movie.srt #3)"},
	}
	for _, tt := range tests {
		if got := progressLabel(tt.rec); got != tt.want {
			t.Errorf("progressLabel(%+v) = %q, want %q", tt.rec, got, tt.want)
		}
	}
}

func TestRun_InvalidSettingsTouchNothing(t *testing.T) {
	st := store.NewMemory()
	recs := seed(t, st, "Hello")
	mock := &libretranslate.MockClient{Response: "x"}
	progress := newProgress()
	s := testSettings()
	s.APIURL = "   "

	err := st.WithWriteAccess(context.Background(), func(sess store.Session) error {
		_, err := New(s, mock).Run(context.Background(), sess, recs, progress)
		return err
	})
	if !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("Run() error = %v, want validation", err)
	}
	if len(progress.labels) != 0 || len(mock.Requests()) != 0 || progress.completed {
		t.Fatal("nothing should run with invalid settings")
	}
}

func TestRun_SequentialCallsInOrder(t *testing.T) {
	st := store.NewMemory()
	recs := seed(t, st, "a", "b", "c")
	mock := &libretranslate.MockClient{Func: func(req libretranslate.Request) (string, error) {
		return strings.ToUpper(req.Text), nil
	}}

	run(t, st, testSettings(), mock, recs, newProgress())

	var sent []string
	for _, r := range mock.Requests() {
		sent = append(sent, r.Text)
	}
	if !reflect.DeepEqual(sent, []string{"a", "b", "c"}) {
		t.Fatalf("requests in order %v", sent)
	}
	if got := translation(t, st, recs[2].ID); got != "C" {
		t.Fatalf("translation = %q", got)
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	in := Result{RunID: "run-1", Total: 3, Processed: 2, Succeeded: 1, Skipped: 1, Aborted: true}
	if err := WriteReport(path, in); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var out Result
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if out.RunID != "run-1" || out.Processed != 2 || !out.Aborted {
		t.Fatalf("report = %+v", out)
	}
}
