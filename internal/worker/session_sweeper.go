package worker

import (
	"context"
	"log"
	"time"

	"github.com/study-assistant/internal/session"
)

// SessionSweeper periodically removes expired sessions and clears one-time
// codes that outlived their validity window, so a stale code cannot sit in
// a long-lived session waiting to be confirmed.
type SessionSweeper struct {
	sessions *session.Manager
	interval time.Duration
	stopChan chan struct{}
}

// NewSessionSweeper creates a sweeper over the session manager.
func NewSessionSweeper(sessions *session.Manager, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the sweep loop
func (w *SessionSweeper) Start() {
	log.Printf("Session sweeper started with interval: %v", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stopChan:
			log.Println("Session sweeper stopped")
			return
		}
	}
}

// Stop stops the sweep loop
func (w *SessionSweeper) Stop() {
	close(w.stopChan)
}

func (w *SessionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sessions, otps, err := w.sessions.Sweep(ctx)
	if err != nil {
		log.Printf("Session sweeper: sweep failed: %v", err)
		return
	}
	if sessions > 0 || otps > 0 {
		log.Printf("Session sweeper: removed %d expired sessions, cleared %d stale codes", sessions, otps)
	}
}
