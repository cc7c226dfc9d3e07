package session

import (
	"context"
	"errors"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nguyentantai21042004/announce-flow/internal/events"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
	"github.com/nguyentantai21042004/announce-flow/internal/segmenter"
	"github.com/nguyentantai21042004/announce-flow/internal/transcription"
)

type fakeSegmenter struct {
	mu       sync.Mutex
	captures []*segmenter.Capture
	errs     []error
}

func (s *fakeSegmenter) Next(ctx context.Context) (*segmenter.Capture, error) {
	s.mu.Lock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		s.mu.Unlock()
		return nil, err
	}
	if len(s.captures) > 0 {
		c := s.captures[0]
		s.captures = s.captures[1:]
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func newCapture(id, pcm string, waitErr error) *segmenter.Capture {
	return &segmenter.Capture{
		ID:        id,
		StartedAt: time.Now(),
		Audio:     strings.NewReader(pcm),
		Wait:      func() error { return waitErr },
	}
}

type fakeEncoder struct {
	dir         string
	err         error
	currentSeen string
	current     func() (string, bool)
}

func (e *fakeEncoder) Path(id string) string { return filepath.Join(e.dir, id+".mp3") }

func (e *fakeEncoder) Encode(_ context.Context, id string, pcm io.Reader) (string, error) {
	if e.current != nil {
		e.currentSeen, _ = e.current()
	}
	if e.err != nil {
		return "", e.err
	}
	raw, err := io.ReadAll(pcm)
	if err != nil {
		return "", err
	}
	return e.Path(id), os.WriteFile(e.Path(id), raw, 0o644)
}

// attemptBackend fails the first `failures` sessions before producing segs
type attemptBackend struct {
	failures int
	segs     []transcription.Segment
	caps     transcription.Capabilities
	opened   int
}

func (b *attemptBackend) Name() string                             { return "fake" }
func (b *attemptBackend) Capabilities() transcription.Capabilities { return b.caps }

func (b *attemptBackend) Transcribe(_ context.Context, audio io.Reader) iter.Seq2[transcription.Segment, error] {
	return func(yield func(transcription.Segment, error) bool) {
		b.opened++
		if b.opened <= b.failures {
			yield(transcription.Segment{}, errors.New("stream reset"))
			return
		}
		for _, s := range b.segs {
			if !yield(s, nil) {
				return
			}
		}
		io.Copy(io.Discard, audio)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, string(e.Type))
	}
	return out
}

func (r *recorder) count(t events.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type harness struct {
	dir  string
	bus  events.Bus
	rec  *recorder
	enc  *fakeEncoder
	orch *implOrchestrator
}

// readingBackend reads a fixed amount of audio per session before yielding
// its segments; a session with fail set errors afterwards
type readingBackend struct {
	sessions []readingSession
	opened   int
}

type readingSession struct {
	read int
	segs []transcription.Segment
	fail bool
}

func (b *readingBackend) Name() string { return "reading" }
func (b *readingBackend) Capabilities() transcription.Capabilities {
	return transcription.Capabilities{Timing: true, Interim: true}
}

func (b *readingBackend) Transcribe(_ context.Context, audio io.Reader) iter.Seq2[transcription.Segment, error] {
	return func(yield func(transcription.Segment, error) bool) {
		s := b.sessions[b.opened]
		b.opened++
		io.ReadFull(audio, make([]byte, s.read))
		for _, seg := range s.segs {
			if !yield(seg, nil) {
				return
			}
		}
		if s.fail {
			yield(transcription.Segment{}, errors.New("stream reset"))
		}
	}
}

func newHarness(t *testing.T, seg *fakeSegmenter, backend transcription.Backend) *harness {
	t.Helper()
	dir := t.TempDir()
	bus := events.New(context.Background(), logger.Nop())
	rec := &recorder{}
	bus.Subscribe("test", rec.handle)

	enc := &fakeEncoder{dir: dir}
	orch := New(Options{OutputDir: dir, RestartDelay: time.Millisecond, SampleRate: 16000}, seg, enc, backend, bus, logger.Nop()).(*implOrchestrator)
	enc.current = orch.Current
	return &harness{dir: dir, bus: bus, rec: rec, enc: enc, orch: orch}
}

func final(content string, start, end int64) transcription.Segment {
	return transcription.Segment{Content: content, StartTime: transcription.Millis(start), EndTime: transcription.Millis(end)}
}

func partial(content string) transcription.Segment {
	return transcription.Segment{Partial: true, Content: content}
}

func lines(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
}

func TestRunOnceAnnouncement(t *testing.T) {
	const id = "20240615093000"
	backend := &attemptBackend{
		caps: transcription.Capabilities{Timing: true, Interim: true},
		segs: []transcription.Segment{
			partial("こん"),
			partial("こん"),
			final("こんにちは", 0, 1200),
			partial(""),
			partial("以上"),
			final("以上です", 1200, 2400),
		},
	}
	h := newHarness(t, &fakeSegmenter{captures: []*segmenter.Capture{newCapture(id, "pcm", nil)}}, backend)

	if err := h.orch.runOnce(context.Background()); err != nil {
		t.Fatalf("runOnce() error = %v", err)
	}
	h.bus.Close()

	want := "streamStarted transcript transcript transcript transcript streamEnded"
	if got := strings.Join(h.rec.types(), " "); got != want {
		t.Errorf("events = %s\nwant %s", got, want)
	}

	ended := h.rec.events[len(h.rec.events)-1].Data.(events.StreamEndedData)
	if ended.ContentLength != 9 {
		t.Errorf("contentLength = %d, want 9", ended.ContentLength)
	}
	if len(ended.Segments) != 2 {
		t.Errorf("segments = %d, want 2", len(ended.Segments))
	}
	if ended.AudioPath != filepath.Join(h.dir, id+".mp3") {
		t.Errorf("audio path = %s", ended.AudioPath)
	}

	txt := lines(t, filepath.Join(h.dir, id+".txt"))
	if len(txt) != 2 || txt[0] != "こんにちは" || txt[1] != "以上です" {
		t.Errorf("txt = %q", txt)
	}
	js := lines(t, filepath.Join(h.dir, id+".json"))
	if len(js) != 2 || js[0] != `{"partial":false,"content":"こんにちは","startTime":0,"endTime":1200}` {
		t.Errorf("json = %q", js)
	}

	if h.enc.currentSeen != id {
		t.Errorf("Current() during session = %q, want %s", h.enc.currentSeen, id)
	}
	if _, live := h.orch.Current(); live {
		t.Error("Current() should be cleared after the session")
	}
}

func TestRunOnceSilentSession(t *testing.T) {
	h := newHarness(t, &fakeSegmenter{captures: []*segmenter.Capture{newCapture("20240615100000", "hiss", nil)}}, &attemptBackend{})

	if err := h.orch.runOnce(context.Background()); err != nil {
		t.Fatalf("runOnce() error = %v", err)
	}
	h.bus.Close()

	if got := strings.Join(h.rec.types(), " "); got != "streamStarted streamEnded" {
		t.Errorf("events = %s", got)
	}
	ended := h.rec.events[1].Data.(events.StreamEndedData)
	if ended.ContentLength != 0 {
		t.Errorf("contentLength = %d, want 0", ended.ContentLength)
	}
}

func TestRunOnceBackendRecoversOnThirdAttempt(t *testing.T) {
	backend := &attemptBackend{
		failures: 2,
		caps:     transcription.Capabilities{Timing: true},
		segs:     []transcription.Segment{final("三番線", 0, 900)},
	}
	h := newHarness(t, &fakeSegmenter{captures: []*segmenter.Capture{newCapture("20240615110000", "pcm", nil)}}, backend)

	if err := h.orch.runOnce(context.Background()); err != nil {
		t.Fatalf("runOnce() error = %v", err)
	}
	h.bus.Close()

	if backend.opened != 3 {
		t.Errorf("sessions opened = %d, want 3", backend.opened)
	}
	if n := h.rec.count(events.StreamEnded); n != 1 {
		t.Errorf("streamEnded events = %d, want 1", n)
	}
	if n := h.rec.count(events.Transcript); n != 1 {
		t.Errorf("transcript events = %d, want 1", n)
	}
}

func TestRunOnceKeepsTimingAcrossBackendRetry(t *testing.T) {
	const id = "20240615113000"
	// 1.2s then 0.9s of 16kHz 16-bit mono
	first, second := 38400, 28800
	backend := &readingBackend{sessions: []readingSession{
		{read: first, segs: []transcription.Segment{final("一番線", 0, 1200)}, fail: true},
		{read: second, segs: []transcription.Segment{final("発車します", 0, 900)}},
	}}
	capture := newCapture(id, strings.Repeat("\x00", first+second), nil)
	h := newHarness(t, &fakeSegmenter{captures: []*segmenter.Capture{capture}}, backend)

	if err := h.orch.runOnce(context.Background()); err != nil {
		t.Fatalf("runOnce() error = %v", err)
	}
	h.bus.Close()

	js := lines(t, filepath.Join(h.dir, id+".json"))
	want := []string{
		`{"partial":false,"content":"一番線","startTime":0,"endTime":1200}`,
		`{"partial":false,"content":"発車します","startTime":1200,"endTime":2100}`,
	}
	if strings.Join(js, "\n") != strings.Join(want, "\n") {
		t.Errorf("json = %q\nwant %q", js, want)
	}
}

func TestRunOnceRecorderFailureAborts(t *testing.T) {
	capture := newCapture("20240615120000", "pcm", errors.New("exit status 1"))
	backend := &attemptBackend{segs: []transcription.Segment{final("test", 0, 100)}}
	h := newHarness(t, &fakeSegmenter{captures: []*segmenter.Capture{capture}}, backend)

	if err := h.orch.runOnce(context.Background()); err == nil {
		t.Fatal("runOnce() should fail when the recorder exits non-zero")
	}
	h.bus.Close()

	if got := strings.Join(h.rec.types(), " "); !strings.HasSuffix(got, "streamEnded streamAborted") {
		t.Errorf("events = %s, want a closing streamEnded then streamAborted", got)
	}
	for _, e := range h.rec.events {
		if ended, ok := e.Data.(events.StreamEndedData); ok && (ended.ContentLength != 0 || ended.Segments != nil) {
			t.Errorf("aborted streamEnded = %+v, want an empty session", ended)
		}
	}
	if _, live := h.orch.Current(); live {
		t.Error("Current() should be cleared after an aborted session")
	}
}

func TestRunOnceEncoderFailureAborts(t *testing.T) {
	backend := &attemptBackend{segs: []transcription.Segment{final("test", 0, 100)}}
	h := newHarness(t, &fakeSegmenter{captures: []*segmenter.Capture{newCapture("20240615130000", "pcm", nil)}}, backend)
	h.enc.err = errors.New("lame not found")

	if err := h.orch.runOnce(context.Background()); err == nil {
		t.Fatal("runOnce() should fail when encoding fails")
	}
	h.bus.Close()

	if h.rec.count(events.StreamAborted) != 1 {
		t.Error("aborted session should emit streamAborted")
	}
	if n := h.rec.count(events.StreamEnded); n != 1 {
		t.Errorf("streamEnded events = %d, want 1", n)
	}
}

func TestRunRestartsAfterFailure(t *testing.T) {
	seg := &fakeSegmenter{
		errs:     []error{errors.New("device busy")},
		captures: []*segmenter.Capture{newCapture("20240615140000", "pcm", nil)},
	}
	backend := &attemptBackend{segs: []transcription.Segment{final("発車します", 0, 800)}}
	h := newHarness(t, seg, backend)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.orch.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for h.rec.count(events.StreamEnded) == 0 {
		select {
		case <-deadline:
			t.Fatal("session never ended")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	h.bus.Close()
}

func TestMerger(t *testing.T) {
	tests := []struct {
		name   string
		timing bool
		in     []transcription.Segment
		want   []string
	}{
		{
			name:   "drops empty and repeated partials",
			timing: true,
			in:     []transcription.Segment{partial("a"), partial("a"), partial(" "), partial("ab"), final("abc", 0, 10)},
			want:   []string{"a:-", "ab:-", "abc:0-10"},
		},
		{
			name:   "repeated final is kept",
			timing: true,
			in:     []transcription.Segment{final("x", 0, 10), final("x", 10, 20)},
			want:   []string{"x:0-10", "x:10-20"},
		},
		{
			name:   "overlapping final is clamped",
			timing: true,
			in:     []transcription.Segment{final("one", 0, 1500), final("two", 1000, 1400)},
			want:   []string{"one:0-1500", "two:1500-1500"},
		},
		{
			name:   "times stripped without timing",
			timing: false,
			in:     []transcription.Segment{final("one", 0, 1500)},
			want:   []string{"one:-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &merger{timing: tt.timing}
			var got []string
			for _, in := range tt.in {
				seg, ok := m.accept(in)
				if !ok {
					continue
				}
				got = append(got, describe(seg))
			}
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func describe(seg transcription.Segment) string {
	if seg.StartTime == nil {
		return seg.Content + ":-"
	}
	return seg.Content + ":" + itoa(*seg.StartTime) + "-" + itoa(*seg.EndTime)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
