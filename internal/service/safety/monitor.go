package safety

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/zhouzirui/mindful/backend/internal/model/crisis"
)

// Monitor collects crisis alerts per session so the front end can surface
// the emergency overlay and operators can review them.
type Monitor struct {
	mu     sync.RWMutex
	alerts map[string][]crisis.Alert
	now    func() time.Time
	notify func(crisis.Alert)
}

// NewMonitor creates a Monitor. notify, when non-nil, is invoked
// synchronously for every alert after it is recorded.
func NewMonitor(notify func(crisis.Alert)) *Monitor {
	return &Monitor{
		alerts: make(map[string][]crisis.Alert),
		now:    time.Now,
		notify: notify,
	}
}

// CrisisDetected records the alert.
func (m *Monitor) CrisisDetected(_ context.Context, alert crisis.Alert) {
	if alert.DetectedAt.IsZero() {
		alert.DetectedAt = m.now().UTC()
	}

	m.mu.Lock()
	m.alerts[alert.SessionID] = append(m.alerts[alert.SessionID], alert)
	m.mu.Unlock()

	log.Printf("[safety] crisis alert recorded session=%s", alert.SessionID)
	if m.notify != nil {
		m.notify(alert)
	}
}

// Alerts returns the alerts recorded for a session, oldest first.
func (m *Monitor) Alerts(sessionID string) []crisis.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]crisis.Alert(nil), m.alerts[sessionID]...)
}

// Forget drops every alert recorded for a session.
func (m *Monitor) Forget(sessionID string) {
	m.mu.Lock()
	delete(m.alerts, sessionID)
	m.mu.Unlock()
}
