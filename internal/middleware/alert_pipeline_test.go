package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/domain/service"
)

type fakeNotifier struct {
	name  string
	fail  int
	mu    sync.Mutex
	got   []models.Alert
	calls int
	block chan struct{}
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Notify(ctx context.Context, a models.Alert) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.fail {
		return errors.New("boom")
	}
	f.got = append(f.got, a)
	return nil
}

func (f *fakeNotifier) received() []models.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Alert(nil), f.got...)
}

type alertCounts struct {
	mu sync.Mutex
	m  map[string]int
}

func newAlertCounts() *alertCounts { return &alertCounts{m: map[string]int{}} }

func (c *alertCounts) RecordFetch(string, bool)      {}
func (c *alertCounts) RecordError(string)            {}
func (c *alertCounts) RecordLatency(string, float64) {}
func (c *alertCounts) RecordLagOrder(int)            {}
func (c *alertCounts) RecordPanelRows(int)           {}

func (c *alertCounts) RecordAlert(_ string, o string) {
	c.mu.Lock()
	c.m[o]++
	c.mu.Unlock()
}

func (c *alertCounts) get(o string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[o]
}

func TestAlertPipeline_DeliversToAllNotifiers(t *testing.T) {
	a, b := &fakeNotifier{name: "a"}, &fakeNotifier{name: "b", fail: 1}
	m := newAlertCounts()
	p := NewAlertPipeline([]service.AlertNotifier{a, b}, m, WithCooldown(0))
	p.Start(context.Background())

	require.True(t, p.Enqueue(models.Alert{ID: "1", SeriesID: "DGS10", Value: 3}))
	require.True(t, p.Enqueue(models.Alert{ID: "2", SeriesID: "DGS10", Value: 4}))

	require.Eventually(t, func() bool { return len(a.received()) == 2 }, time.Second, 5*time.Millisecond)
	p.Stop(context.Background())

	assert.Len(t, b.received(), 1, "a failing notifier does not block the others")
	assert.Equal(t, 1, m.get(OutcomeFailed))
	assert.Equal(t, 3, m.get(OutcomeDelivered))
}

func TestAlertPipeline_RetriesFailingNotifier(t *testing.T) {
	n := &fakeNotifier{name: "flaky", fail: 2}
	p := NewAlertPipeline([]service.AlertNotifier{n}, newAlertCounts(), WithRetry(3, time.Millisecond))
	p.Start(context.Background())

	p.Enqueue(models.Alert{ID: "1", SeriesID: "SP500"})
	require.Eventually(t, func() bool { return len(n.received()) == 1 }, time.Second, 5*time.Millisecond)
	p.Stop(context.Background())
}

func TestAlertPipeline_DropsWhenFull(t *testing.T) {
	n := &fakeNotifier{name: "slow", block: make(chan struct{})}
	m := newAlertCounts()
	p := NewAlertPipeline([]service.AlertNotifier{n}, m, WithBufferSize(1), WithCooldown(0))

	// worker not started: buffer of one fills immediately
	assert.True(t, p.Enqueue(models.Alert{SeriesID: "A"}))
	assert.False(t, p.Enqueue(models.Alert{SeriesID: "B"}))
	assert.Equal(t, 1, m.get(OutcomeDropped))
	assert.Equal(t, 1, p.Pending())

	close(n.block)
	p.Start(context.Background())
	p.Stop(context.Background())
	assert.Len(t, n.received(), 1)
}

func TestAlertPipeline_CooldownSuppressesRepeats(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newAlertCounts()
	p := NewAlertPipeline(nil, m, WithCooldown(time.Hour), WithPipelineClock(func() time.Time { return now }))

	assert.True(t, p.Enqueue(models.Alert{SeriesID: "A"}))
	assert.False(t, p.Enqueue(models.Alert{SeriesID: "A"}))
	assert.True(t, p.Enqueue(models.Alert{SeriesID: "B"}))
	assert.True(t, p.Enqueue(models.Alert{SeriesID: "A", Test: true}), "test alerts bypass cooldown")

	now = now.Add(61 * time.Minute)
	assert.True(t, p.Enqueue(models.Alert{SeriesID: "A"}))
	assert.Equal(t, 1, m.get(OutcomeSuppressed))
}

func TestAlertPipeline_DroppedAlertDoesNotArmCooldown(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newAlertCounts()
	p := NewAlertPipeline(nil, m, WithBufferSize(1), WithCooldown(time.Hour), WithPipelineClock(func() time.Time { return now }))

	require.True(t, p.Enqueue(models.Alert{SeriesID: "B"}))
	assert.False(t, p.Enqueue(models.Alert{SeriesID: "A"}), "buffer full")
	assert.Equal(t, 1, m.get(OutcomeDropped))

	<-p.bufCh
	assert.True(t, p.Enqueue(models.Alert{SeriesID: "A"}), "a dropped alert must not start the cooldown")
	assert.Equal(t, 0, m.get(OutcomeSuppressed))
}

func TestAlertPipeline_TestAlertDoesNotArmCooldown(t *testing.T) {
	m := newAlertCounts()
	p := NewAlertPipeline(nil, m, WithCooldown(time.Hour))

	require.True(t, p.Enqueue(models.Alert{SeriesID: "A", Test: true}))
	assert.True(t, p.Enqueue(models.Alert{SeriesID: "A"}))
}

func TestAlertPipeline_StartAfterStopIsNoop(t *testing.T) {
	n := &fakeNotifier{name: "log"}
	p := NewAlertPipeline([]service.AlertNotifier{n}, newAlertCounts(), WithCooldown(0))

	p.Start(context.Background())
	p.Stop(context.Background())
	require.NotPanics(t, func() {
		p.Start(context.Background())
		p.Stop(context.Background())
	})

	assert.True(t, p.Enqueue(models.Alert{SeriesID: "A"}))
	assert.Equal(t, 1, p.Pending(), "no worker runs after the first Stop")
}
