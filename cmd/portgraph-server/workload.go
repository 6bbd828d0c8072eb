package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/flowgraph/portgraph/internal/demo"
)

// workloadManager drives the demo board on a ticker.
type workloadManager struct {
	board    *demo.Board
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newWorkloadManager(board *demo.Board, interval time.Duration, logger *slog.Logger) *workloadManager {
	return &workloadManager{board: board, interval: interval, logger: logger}
}

// start begins stepping the board; it reports false if already running.
func (m *workloadManager) start(parent context.Context, rate time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(ctx, rate, m.done)
	return true
}

func (m *workloadManager) stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (m *workloadManager) running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *workloadManager) loop(ctx context.Context, rate time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.board.Step(ctx, i); err != nil {
				m.logger.Error("demo step failed", "step", i, "error", err)
			}
		}
	}
}

func (m *workloadManager) handleStart(w http.ResponseWriter, r *http.Request) {
	rate := m.interval
	if v := r.URL.Query().Get("rate_ms"); v != "" {
		if d, err := time.ParseDuration(v + "ms"); err == nil && d > 0 {
			rate = d
		}
	}
	// the loop outlives the request
	if !m.start(context.Background(), rate) {
		http.Error(w, "demo workload already running", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	_, _ = fmt.Fprintf(w, "demo workload started at %v\n", rate)
}

func (m *workloadManager) handleStop(w http.ResponseWriter, r *http.Request) {
	m.stop()
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "demo workload stopped\n")
}
