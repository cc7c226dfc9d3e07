package webpush

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/nguyentantai21042004/announce-flow/internal/logger"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 10

// Registry is the durable set of push subscriptions. Inserts are appended to
// a JSON lines file; the file is rewritten only after a broadcast pruned
// subscriptions. All file writes happen under one lock.
type Registry struct {
	path        string
	sender      Sender
	concurrency int
	logger      logger.Logger

	mu        sync.Mutex
	file      *os.File
	subs      []Subscription
	endpoints map[string]bool
}

// OpenRegistry loads the subscriptions stored at path
func OpenRegistry(path string, sender Sender, concurrency int, log logger.Logger) (*Registry, error) {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	r := &Registry{
		path:        path,
		sender:      sender,
		concurrency: concurrency,
		logger:      log,
		endpoints:   make(map[string]bool),
	}
	if err := r.load(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open subscriptions: %w", err)
	}
	r.file = f
	return r, nil
}

func (r *Registry) load() error {
	f, err := os.Open(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open subscriptions: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var sub Subscription
		if err := json.Unmarshal([]byte(line), &sub); err != nil {
			return fmt.Errorf("parse subscription: %w", err)
		}
		if sub.Endpoint == "" || r.endpoints[sub.Endpoint] {
			continue
		}
		r.subs = append(r.subs, sub)
		r.endpoints[sub.Endpoint] = true
	}
	return sc.Err()
}

// Subscribe stores sub unless its endpoint is already known.
// It reports whether a new subscription was added.
func (r *Registry) Subscribe(sub Subscription) (bool, error) {
	if sub.Endpoint == "" {
		return false, fmt.Errorf("subscription endpoint is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.endpoints[sub.Endpoint] {
		return false, nil
	}

	line, err := json.Marshal(sub)
	if err != nil {
		return false, fmt.Errorf("marshal subscription: %w", err)
	}
	if _, err := r.file.Write(append(line, '\n')); err != nil {
		return false, fmt.Errorf("append subscription: %w", err)
	}
	r.subs = append(r.subs, sub)
	r.endpoints[sub.Endpoint] = true
	return true, nil
}

// Len reports stored subscriptions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Broadcast sends payload to every subscription with bounded concurrency.
// Gone subscriptions are removed and the file is compacted once afterwards.
func (r *Registry) Broadcast(ctx context.Context, payload []byte) (int, error) {
	r.mu.Lock()
	subs := append([]Subscription(nil), r.subs...)
	r.mu.Unlock()

	var (
		goneMu sync.Mutex
		gone   = make(map[string]bool)
	)
	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for _, sub := range subs {
		g.Go(func() error {
			err := r.sender.Send(ctx, sub, payload)
			switch {
			case err == nil:
			case isGone(err):
				goneMu.Lock()
				gone[sub.Endpoint] = true
				goneMu.Unlock()
			default:
				r.logger.Warn(ctx, "Push to %s failed: %v", shorten(sub.Endpoint), err)
			}
			return nil
		})
	}
	g.Wait()

	if len(gone) == 0 {
		return 0, nil
	}
	if err := r.prune(gone); err != nil {
		return len(gone), err
	}
	r.logger.Info(ctx, "Removed %d expired push subscriptions (%d left)", len(gone), r.Len())
	return len(gone), nil
}

// prune drops the given endpoints and rewrites the file in place
func (r *Registry) prune(gone map[string]bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.subs[:0]
	for _, sub := range r.subs {
		if gone[sub.Endpoint] {
			delete(r.endpoints, sub.Endpoint)
			continue
		}
		kept = append(kept, sub)
	}
	r.subs = kept

	var buf strings.Builder
	for _, sub := range r.subs {
		line, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("marshal subscription: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := r.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate subscriptions: %w", err)
	}
	if _, err := r.file.WriteString(buf.String()); err != nil {
		return fmt.Errorf("rewrite subscriptions: %w", err)
	}
	return r.file.Sync()
}

// Close releases the subscriptions file
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

func shorten(endpoint string) string {
	if len(endpoint) > 48 {
		return endpoint[:48] + "..."
	}
	return endpoint
}
