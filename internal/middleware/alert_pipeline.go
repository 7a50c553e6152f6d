package middleware

import (
	"context"
	"sync"
	"time"

	"MacroPull/internal/domain/models"
	domrepo "MacroPull/internal/domain/repository"
	"MacroPull/internal/domain/service"
	applogger "MacroPull/pkg/logger"
)

// Alert outcomes recorded through Metrics.RecordAlert.
const (
	OutcomeQueued     = "queued"
	OutcomeDropped    = "dropped"
	OutcomeSuppressed = "suppressed"
	OutcomeDelivered  = "delivered"
	OutcomeFailed     = "failed"
)

// AlertPipeline sits between the differencing engine and the notifiers.
// Enqueue never blocks: alerts go into a bounded buffer and a single worker fans
// them out. A full buffer drops the alert. Repeat alerts for the same series
// within the cooldown window are suppressed; test alerts bypass the cooldown.
type AlertPipeline struct {
	notifiers []service.AlertNotifier
	metrics   domrepo.Metrics
	l         *applogger.Logger

	bufSize  int
	cooldown time.Duration
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	now      func() time.Time

	bufCh   chan models.Alert
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	mu      sync.Mutex

	lastSent map[string]time.Time
}

var _ service.AlertDispatcher = (*AlertPipeline)(nil)

type PipelineOption func(*AlertPipeline)

// WithBufferSize sets the number of alerts held while the worker is busy.
func WithBufferSize(n int) PipelineOption {
	return func(p *AlertPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithCooldown sets the minimum gap between two alerts of the same series.
// Zero disables suppression.
func WithCooldown(d time.Duration) PipelineOption {
	return func(p *AlertPipeline) {
		if d >= 0 {
			p.cooldown = d
		}
	}
}

// WithNotifyTimeout bounds each notifier call.
func WithNotifyTimeout(d time.Duration) PipelineOption {
	return func(p *AlertPipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithRetry retries a failing notifier up to attempts times with doubling backoff.
func WithRetry(attempts int, backoff time.Duration) PipelineOption {
	return func(p *AlertPipeline) {
		if attempts > 0 {
			p.attempts = attempts
		}
		if backoff > 0 {
			p.backoff = backoff
		}
	}
}

func WithPipelineLogger(l *applogger.Logger) PipelineOption {
	return func(p *AlertPipeline) {
		if l != nil {
			p.l = l
		}
	}
}

func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *AlertPipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// NewAlertPipeline creates a new pipeline delivering to notifiers.
func NewAlertPipeline(notifiers []service.AlertNotifier, metrics domrepo.Metrics, opts ...PipelineOption) *AlertPipeline {
	p := &AlertPipeline{
		notifiers: notifiers,
		metrics:   metrics,
		l:         applogger.NewNop(),
		bufSize:   256,
		cooldown:  time.Hour,
		timeout:   10 * time.Second,
		attempts:  1,
		backoff:   50 * time.Millisecond,
		now:       time.Now,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		lastSent:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan models.Alert, p.bufSize)
	return p
}

// Start launches the delivery worker. A pipeline runs once; Start after Stop is a no-op.
func (p *AlertPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.doneCh)
		for {
			select {
			case <-p.stopCh:
				p.drain(ctx)
				return
			case <-ctx.Done():
				return
			case a := <-p.bufCh:
				p.deliver(ctx, a)
			}
		}
	}()
}

// Stop stops the worker after delivering what is already queued, or when ctx expires.
func (p *AlertPipeline) Stop(ctx context.Context) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.stopped = true
	p.mu.Unlock()
	close(p.stopCh)

	select {
	case <-p.doneCh:
	case <-ctx.Done():
		p.l.Warn("alert pipeline stop timed out", applogger.Int("pending", len(p.bufCh)))
	}
}

// Enqueue hands an alert to the worker. It reports whether the alert was queued.
// The cooldown is armed only by an alert that made it into the buffer.
func (p *AlertPipeline) Enqueue(a models.Alert) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if !a.Test && p.inCooldown(a.SeriesID, now) {
		p.metrics.RecordAlert(a.SeriesID, OutcomeSuppressed)
		p.l.Debug("alert suppressed by cooldown", applogger.String("series", a.SeriesID))
		return false
	}
	select {
	case p.bufCh <- a:
		if !a.Test && p.cooldown > 0 {
			p.lastSent[a.SeriesID] = now
		}
		p.metrics.RecordAlert(a.SeriesID, OutcomeQueued)
		return true
	default:
		p.metrics.RecordAlert(a.SeriesID, OutcomeDropped)
		p.l.Warn("alert buffer full, dropping",
			applogger.String("series", a.SeriesID),
			applogger.Int("buffer", p.bufSize),
		)
		return false
	}
}

// Pending returns the number of queued alerts.
func (p *AlertPipeline) Pending() int { return len(p.bufCh) }

// inCooldown must be called with mu held.
func (p *AlertPipeline) inCooldown(seriesID string, now time.Time) bool {
	if p.cooldown <= 0 {
		return false
	}
	last, ok := p.lastSent[seriesID]
	return ok && now.Sub(last) < p.cooldown
}

func (p *AlertPipeline) drain(ctx context.Context) {
	for {
		select {
		case a := <-p.bufCh:
			p.deliver(ctx, a)
		default:
			return
		}
	}
}

// deliver fans out to every notifier. Failures are logged and counted only.
func (p *AlertPipeline) deliver(ctx context.Context, a models.Alert) {
	start := time.Now()
	for _, n := range p.notifiers {
		if err := p.notify(ctx, n, a); err != nil {
			p.metrics.RecordAlert(a.SeriesID, OutcomeFailed)
			p.metrics.RecordError("alert_" + n.Name())
			p.l.Error("alert delivery failed",
				applogger.String("notifier", n.Name()),
				applogger.String("series", a.SeriesID),
				applogger.String("alert_id", a.ID),
				applogger.Error(err),
			)
			continue
		}
		p.metrics.RecordAlert(a.SeriesID, OutcomeDelivered)
	}
	p.metrics.RecordLatency("alert_deliver", time.Since(start).Seconds())
}

func (p *AlertPipeline) notify(ctx context.Context, n service.AlertNotifier, a models.Alert) error {
	backoff := p.backoff
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		cctx, cancel := context.WithTimeout(ctx, p.timeout)
		err = n.Notify(cctx, a)
		cancel()
		if err == nil || attempt == p.attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
	return err
}
