package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nguyentantai21042004/announce-flow/internal/events"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
)

func openTestCatalog(t *testing.T) Catalog {
	t.Helper()
	c, err := Open(context.Background(), ":memory:", logger.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func feed(c Catalog, evs ...events.Event) {
	for _, e := range evs {
		c.HandleEvent(context.Background(), e)
	}
}

func started(id string) events.Event {
	return events.Event{Type: events.StreamStarted, Data: events.StreamStartedData{StreamID: id}}
}

func ended(id string, n int) events.Event {
	return events.Event{Type: events.StreamEnded, Data: events.StreamEndedData{StreamID: id, ContentLength: n}}
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		name    string
		events  []events.Event
		want    State
		summary string
		length  int
	}{
		{
			name:   "recording",
			events: []events.Event{started("20240101120000")},
			want:   StateRecording,
		},
		{
			name:   "discarded",
			events: []events.Event{started("20240101120000"), ended("20240101120000", 0)},
			want:   StateDiscarded,
		},
		{
			name: "aborted",
			events: []events.Event{
				started("20240101120000"),
				{Type: events.StreamAborted, Data: events.StreamAbortedData{StreamID: "20240101120000", Reason: "encoder exited"}},
			},
			want: StateAborted,
		},
		{
			name: "aborted after closing for viewers",
			events: []events.Event{
				started("20240101120000"),
				ended("20240101120000", 0),
				{Type: events.StreamAborted, Data: events.StreamAbortedData{StreamID: "20240101120000", Reason: "recorder exited"}},
			},
			want: StateAborted,
		},
		{
			name: "published",
			events: []events.Event{
				started("20240101120000"),
				ended("20240101120000", 42),
				{Type: events.Summarizing, Data: events.SummarizingData{StreamID: "20240101120000"}},
				{Type: events.Summary, Data: events.SummaryData{StreamID: "20240101120000", Summary: "避難所開設"}},
				{Type: events.Published, Data: events.PublishedData{StreamID: "20240101120000"}},
			},
			want:    StatePublished,
			summary: "避難所開設",
			length:  42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := openTestCatalog(t)
			feed(c, tt.events...)

			got, err := c.Get(context.Background(), "20240101120000")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got == nil {
				t.Fatal("Get() = nil")
			}
			if got.State != tt.want {
				t.Errorf("State = %q, want %q", got.State, tt.want)
			}
			if got.Summary != tt.summary {
				t.Errorf("Summary = %q, want %q", got.Summary, tt.summary)
			}
			if got.ContentLength != tt.length {
				t.Errorf("ContentLength = %d, want %d", got.ContentLength, tt.length)
			}
			if got.StartedAt.Year() != 2024 {
				t.Errorf("StartedAt = %v", got.StartedAt)
			}
		})
	}
}

func TestGetUnknown(t *testing.T) {
	c := openTestCatalog(t)
	got, err := c.Get(context.Background(), "nope")
	if err != nil || got != nil {
		t.Errorf("Get() = %v, %v", got, err)
	}
}

func TestRecent(t *testing.T) {
	c := openTestCatalog(t)
	feed(c,
		started("20240101120000"), ended("20240101120000", 10),
		started("20240101130000"), ended("20240101130000", 0),
		started("20240101140000"), ended("20240101140000", 5),
		started("20240101150000"), ended("20240101150000", 8),
		started("20240101160000"),
	)

	tests := []struct {
		name    string
		limit   int
		exclude string
		want    []string
	}{
		{name: "all listable", limit: 20, want: []string{"20240101150000", "20240101140000", "20240101120000"}},
		{name: "limit", limit: 2, want: []string{"20240101150000", "20240101140000"}},
		{name: "exclude current", limit: 20, exclude: "20240101150000", want: []string{"20240101140000", "20240101120000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Recent(context.Background(), tt.limit, tt.exclude)
			if err != nil {
				t.Fatalf("Recent() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Recent() = %d entries, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("Recent()[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.sqlite")
	c, err := Open(context.Background(), path, logger.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	feed(c, started("20240101120000"), ended("20240101120000", 3))
	c.Close()

	c, err = Open(context.Background(), path, logger.Nop())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer c.Close()
	entries, err := c.Recent(context.Background(), 20, "")
	if err != nil || len(entries) != 1 {
		t.Errorf("Recent() = %v, %v", entries, err)
	}
}

func TestListable(t *testing.T) {
	for state, want := range map[State]bool{
		StateRecording: false, StateFinished: true, StateDiscarded: false,
		StateAborted: false, StateSummarized: true, StatePublished: true,
	} {
		if state.Listable() != want {
			t.Errorf("%s.Listable() = %v", state, !want)
		}
	}
}
