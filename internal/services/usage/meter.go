// Package usage meters remote generation calls against an advisory daily quota
package usage

import (
	"sort"
	"sync"

	"github.com/bobmcallan/egxtrends/internal/common"
	"github.com/bobmcallan/egxtrends/internal/interfaces"
	"github.com/bobmcallan/egxtrends/internal/models"
)

// DefaultDailyQuota is the advisory number of remote calls per day
const DefaultDailyQuota = 1500

// Level thresholds as a share of the daily quota
const (
	warningRatio  = 0.5
	criticalRatio = 0.9
)

// Meter counts remote calls and notifies subscribers on every change.
// Subscribers are called outside the counter lock, in order, and must not
// call Record or Reset themselves.
type Meter struct {
	mu          sync.Mutex
	notifyMu    sync.Mutex
	count       int
	quota       int
	nextID      int
	subscribers map[int]func(count int)
	logger      *common.Logger
}

// NewMeter creates a meter with the given advisory quota
func NewMeter(quota int, logger *common.Logger) *Meter {
	if quota <= 0 {
		quota = DefaultDailyQuota
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Meter{
		quota:       quota,
		subscribers: make(map[int]func(int)),
		logger:      logger,
	}
}

// Record registers one remote call
func (m *Meter) Record() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	m.count++
	count := m.count
	subs := m.subscriberList()
	m.mu.Unlock()

	if level := levelFor(count, m.quota); level != levelFor(count-1, m.quota) {
		m.logger.Warn().Int("count", count).Int("daily_quota", m.quota).Str("level", level).Msg("Remote usage threshold crossed")
	}

	for _, fn := range subs {
		fn(count)
	}
}

// Reset zeroes the counter, e.g. at the start of a trading day
func (m *Meter) Reset() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	previous := m.count
	m.count = 0
	subs := m.subscriberList()
	m.mu.Unlock()

	m.logger.Info().Int("previous_count", previous).Msg("Usage meter reset")

	for _, fn := range subs {
		fn(0)
	}
}

// Count returns the number of calls recorded since start or the last Reset
func (m *Meter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Quota returns the advisory daily quota
func (m *Meter) Quota() int {
	return m.quota
}

// Subscribe registers fn, calls it once with the current count and then on
// every change. The returned function unsubscribes; it is safe to call twice.
func (m *Meter) Subscribe(fn func(count int)) (unsubscribe func()) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn
	count := m.count
	m.mu.Unlock()

	fn(count)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered subscribers
func (m *Meter) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// Snapshot returns the current count against the quota
func (m *Meter) Snapshot() models.UsageSnapshot {
	return m.snapshot(m.Count())
}

func (m *Meter) snapshot(count int) models.UsageSnapshot {
	remaining := m.quota - count
	if remaining < 0 {
		remaining = 0
	}
	return models.UsageSnapshot{
		Count:      count,
		DailyQuota: m.quota,
		Remaining:  remaining,
		Level:      levelFor(count, m.quota),
	}
}

// subscriberList copies the subscriber set in registration order. Caller holds m.mu.
func (m *Meter) subscriberList() []func(int) {
	ids := make([]int, 0, len(m.subscribers))
	for id := range m.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	subs := make([]func(int), len(ids))
	for i, id := range ids {
		subs[i] = m.subscribers[id]
	}
	return subs
}

func levelFor(count, quota int) string {
	ratio := float64(count) / float64(quota)
	switch {
	case ratio > criticalRatio:
		return models.UsageLevelCritical
	case ratio > warningRatio:
		return models.UsageLevelWarning
	default:
		return models.UsageLevelNormal
	}
}

// Ensure Meter implements UsageService
var _ interfaces.UsageService = (*Meter)(nil)
