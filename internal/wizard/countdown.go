package wizard

import (
	"sync"
	"time"

	"github.com/productivefire/server/internal/pkg/clock"
)

// CodeTTL mirrors the server-side code lifetime.
const CodeTTL = 600 * time.Second

// countdown tracks the deadline of the current code. Remaining is computed
// from the clock so it is exact even between ticks; the ticker goroutine
// only reports progress and fires onExpire once.
type countdown struct {
	clock    clock.TickerClocker
	onTick   func(remaining time.Duration)
	onExpire func()

	mu       sync.Mutex
	deadline time.Time
	stop     chan struct{}
	done     chan struct{}
}

func newCountdown(c clock.TickerClocker, onTick func(time.Duration), onExpire func()) *countdown {
	return &countdown{clock: c, onTick: onTick, onExpire: onExpire}
}

// start resets the deadline to CodeTTL from now, replacing any running timer.
func (cd *countdown) start() {
	cd.halt()

	cd.mu.Lock()
	defer cd.mu.Unlock()

	cd.deadline = cd.clock.Now().Add(CodeTTL)
	cd.stop = make(chan struct{})
	cd.done = make(chan struct{})

	go cd.run(cd.clock.NewTicker(time.Second), cd.stop, cd.done)
}

func (cd *countdown) run(t clock.Ticker, stop, done chan struct{}) {
	defer close(done)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C():
			rem := cd.remaining()
			if cd.onTick != nil {
				cd.onTick(rem)
			}
			if rem == 0 {
				if cd.onExpire != nil {
					cd.onExpire()
				}
				return
			}
		}
	}
}

// halt stops the ticker goroutine and waits for it. The deadline is kept so
// Remaining still answers after completion.
func (cd *countdown) halt() {
	cd.mu.Lock()
	stop, done := cd.stop, cd.done
	cd.stop, cd.done = nil, nil
	cd.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (cd *countdown) remaining() time.Duration {
	cd.mu.Lock()
	deadline := cd.deadline
	cd.mu.Unlock()

	if deadline.IsZero() {
		return 0
	}
	if rem := deadline.Sub(cd.clock.Now()); rem > 0 {
		return rem
	}
	return 0
}

func (cd *countdown) expired() bool {
	cd.mu.Lock()
	started := !cd.deadline.IsZero()
	cd.mu.Unlock()

	return started && cd.remaining() == 0
}
