package terminal

import (
	"time"

	"go.uber.org/zap"
)

func (m *Manager) runReaper() {
	defer close(m.reaperDone)

	ticker := time.NewTicker(m.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopReaper:
			return
		case now := <-ticker.C:
			m.reap(now)
		}
	}
}

// reap forgets sessions whose shell exited at least ReapAfter before now
func (m *Manager) reap(now time.Time) int {
	m.mu.Lock()
	var expired []*Session
	for terminalID, s := range m.sessions {
		if exitedAt, ok := s.exitTime(); ok && now.Sub(exitedAt) >= m.cfg.ReapAfter {
			delete(m.sessions, terminalID)
			expired = append(expired, s)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if len(expired) == 0 {
		return 0
	}

	for _, s := range expired {
		s.broadcaster.Close()
		m.logger.Debug("Reaped exited terminal session", zap.String("terminal_id", s.ID))
	}
	m.metrics.SetTerminalSessionsActive(count)

	return len(expired)
}
