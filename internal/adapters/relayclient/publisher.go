// Package relayclient forwards result snapshots from the API process to a
// relay running as a separate process.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vncsmyrnk/evote/internal/core/domain"
)

const (
	DefaultQueueSize = 256
	DefaultTimeout   = 2 * time.Second
	IngestPath       = "/api/relay/snapshots"
)

type Options struct {
	// BaseURL of the relay, e.g. http://relay:8090
	BaseURL   string
	Token     string
	QueueSize int
	Timeout   time.Duration
	Client    *http.Client
	Logger    *slog.Logger
}

// Publisher is a fire-and-forget ports.SnapshotPublisher. Snapshots are
// queued and posted by a single worker; when the queue is full or the relay
// is down they are logged and dropped.
type Publisher struct {
	url    string
	token  string
	client *http.Client
	logger *slog.Logger

	queue    chan *domain.ResultSnapshot
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewPublisher(opts Options) *Publisher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Publisher{
		url:    opts.BaseURL + IngestPath,
		token:  opts.Token,
		client: client,
		logger: logger.With("component", "relayclient"),
		queue:  make(chan *domain.ResultSnapshot, opts.QueueSize),
		stopCh: make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run(opts.Timeout)
	return p
}

func (p *Publisher) Publish(snapshot *domain.ResultSnapshot) {
	if snapshot == nil {
		return
	}
	select {
	case <-p.stopCh:
		return
	default:
	}
	select {
	case p.queue <- snapshot:
	default:
		p.logger.Warn("relay publish queue full, dropping snapshot",
			"event", "relay.dropped",
			"election_id", snapshot.ElectionID,
			"version", snapshot.Version,
		)
	}
}

func (p *Publisher) run(timeout time.Duration) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case snapshot := <-p.queue:
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			if err := p.post(ctx, snapshot); err != nil {
				p.logger.Warn("failed to forward snapshot",
					"event", "relay.unavailable",
					"election_id", snapshot.ElectionID,
					"version", snapshot.Version,
					"error", err,
				)
			}
			cancel()
		}
	}
}

func (p *Publisher) post(ctx context.Context, snapshot *domain.ResultSnapshot) error {
	body, err := json.Marshal(domain.NewVoteCastEvent(snapshot))
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRelayUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRelayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: relay responded %s", domain.ErrRelayUnavailable, resp.Status)
	}
	return nil
}

// Stop terminates the worker. Snapshots still queued are discarded.
func (p *Publisher) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.wg.Wait()
		p.client.CloseIdleConnections()
	})
}
