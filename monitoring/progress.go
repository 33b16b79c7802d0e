package monitoring

import (
	"sync"
	"time"

	"github.com/tablesim/tablesim/sim"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// SetFinished sets the number of finished elements.
func (b *ProgressBar) SetFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	if amount > b.Total {
		amount = b.Total
	}
	b.Finished = amount
}

// A TimeProgressHook advances a progress bar as the simulated time moves
// toward the run horizon. Attach it to the engine.
type TimeProgressHook struct {
	bar     *ProgressBar
	teller  sim.TimeTeller
	horizon sim.VTimeInSec
}

// NewTimeProgressHook creates a hook that tracks simulated time on the
// given bar. The bar total is interpreted as the horizon in milliseconds.
func NewTimeProgressHook(
	bar *ProgressBar,
	teller sim.TimeTeller,
	horizon sim.VTimeInSec,
) *TimeProgressHook {
	return &TimeProgressHook{
		bar:     bar,
		teller:  teller,
		horizon: horizon,
	}
}

// Func updates the bar after every event.
func (h *TimeProgressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}

	if h.horizon <= 0 {
		return
	}

	now := h.teller.CurrentTime()
	h.bar.SetFinished(uint64(float64(now) * 1000))
}
