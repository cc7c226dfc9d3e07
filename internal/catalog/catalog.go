package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/announce-flow/internal/events"
	"github.com/nguyentantai21042004/announce-flow/internal/segmenter"
)

func (c *implCatalog) HandleEvent(ctx context.Context, e events.Event) {
	var err error
	switch d := e.Data.(type) {
	case events.StreamStartedData:
		err = c.setState(ctx, d.StreamID, StateRecording)
	case events.StreamEndedData:
		state := StateFinished
		if d.ContentLength == 0 {
			state = StateDiscarded
		}
		if err = c.setState(ctx, d.StreamID, state); err == nil {
			err = c.exec(ctx, `UPDATE sessions SET content_length = ? WHERE id = ?`, d.ContentLength, d.StreamID)
		}
	case events.StreamAbortedData:
		if err = c.setState(ctx, d.StreamID, StateAborted); err == nil {
			err = c.exec(ctx, `UPDATE sessions SET reason = ? WHERE id = ?`, d.Reason, d.StreamID)
		}
	case events.SummarizingData:
		err = c.setState(ctx, d.StreamID, StateSummarizing)
	case events.SummaryData:
		if err = c.setState(ctx, d.StreamID, StateSummarized); err == nil {
			err = c.exec(ctx, `UPDATE sessions SET summary = ? WHERE id = ?`, d.Summary, d.StreamID)
		}
	case events.PublishedData:
		err = c.setState(ctx, d.StreamID, StatePublished)
	default:
		return
	}
	if err != nil {
		c.logger.Error(ctx, "Catalog %s for %s: %v", e.Type, e.StreamID(), err)
	}
}

func (c *implCatalog) setState(ctx context.Context, id string, state State) error {
	now := time.Now().Unix()
	return c.exec(ctx, `
		INSERT INTO sessions (id, state, started_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`, id, string(state), startedAt(id).Unix(), now)
}

func (c *implCatalog) exec(ctx context.Context, query string, args ...any) error {
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

func (c *implCatalog) Recent(ctx context.Context, limit int, exclude string) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, state, content_length, summary, started_at, updated_at
		FROM sessions
		WHERE state IN (?, ?, ?, ?) AND id != ?
		ORDER BY id DESC
		LIMIT ?
	`, string(StateFinished), string(StateSummarizing), string(StateSummarized), string(StatePublished), exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (c *implCatalog) Get(ctx context.Context, id string) (*Entry, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, state, content_length, summary, started_at, updated_at
		FROM sessions
		WHERE id = ?
	`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

func (c *implCatalog) Close() error {
	return c.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e                    Entry
		state                string
		startedAt, updatedAt int64
	)
	if err := s.Scan(&e.ID, &state, &e.ContentLength, &e.Summary, &startedAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	e.State = State(state)
	e.StartedAt = time.Unix(startedAt, 0)
	e.UpdatedAt = time.Unix(updatedAt, 0)
	return &e, nil
}

// startedAt recovers the capture time encoded in a session id
func startedAt(id string) time.Time {
	t, err := time.ParseInLocation(segmenter.IDLayout, id, time.Local)
	if err != nil {
		return time.Now()
	}
	return t
}
