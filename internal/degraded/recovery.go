package degraded

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ProbeFunc checks upstream reachability. Returns nil once the provider answers.
type ProbeFunc func(ctx context.Context) error

const probeTimeout = 10 * time.Second

var (
	recoveryChan   chan struct{}
	recoveryChanMu sync.Mutex
)

// NotifyDegraded signals that the service is degraded. Triggers recovery if not already running.
// Safe to call from handlers; non-blocking.
func NotifyDegraded() {
	recoveryChanMu.Lock()
	ch := recoveryChan
	recoveryChanMu.Unlock()
	if ch != nil {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// StartRecoveryListener starts a goroutine that runs RunRecovery whenever NotifyDegraded is called.
// At most one recovery sequence runs at a time.
func StartRecoveryListener(ctx context.Context, probe ProbeFunc, initial, max time.Duration, onExhausted func()) {
	ch := make(chan struct{}, 1)
	recoveryChanMu.Lock()
	recoveryChan = ch
	recoveryChanMu.Unlock()

	var running atomic.Bool
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				if running.Swap(true) {
					continue
				}
				go func() {
					defer running.Store(false)
					RunRecovery(ctx, probe, initial, max, onExhausted)
				}()
			}
		}
	}()
}

// RunRecovery probes the provider on a Fibonacci schedule starting at initial and capped at max
// (1x, 2x, 3x, 5x, 8x ... initial). The first successful probe clears the error window.
// onExhausted runs when the final probe still fails.
func RunRecovery(ctx context.Context, probe ProbeFunc, initial, max time.Duration, onExhausted func()) {
	if initial <= 0 || max < initial {
		return
	}
	delays := fibDelays(initial, max)
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C
	for i, d := range delays {
		timer.Reset(d)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		attemptCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := probe(attemptCtx)
		cancel()
		if err == nil {
			Reset()
			return
		}
		if i == len(delays)-1 && onExhausted != nil {
			onExhausted()
		}
	}
}

func fibDelays(initial, max time.Duration) []time.Duration {
	var out []time.Duration
	a, b := time.Duration(1), time.Duration(2)
	for {
		d := initial * a
		if d > max {
			break
		}
		out = append(out, d)
		a, b = b, a+b
	}
	return out
}
