// Package sale drives one sale lifecycle on a vendor pump controller:
// authorize, preset, poll until the preset volume is delivered, close.
// Retry policy stays with the caller; the runner only observes and steps
// the state machine the dispenser reports.
package sale

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/abhi-fuelbuddy/dispenser-sdk/helpers"
	"github.com/abhi-fuelbuddy/dispenser-sdk/log2"
	"github.com/abhi-fuelbuddy/dispenser-sdk/pump"
)

const DefaultPollInterval = 500 * time.Millisecond

var ErrStopped = errors.New("sale: runner stopped")

// Controller is what a vendor driver must provide to run a sale.
// Both zcheng and sanki controllers satisfy it.
type Controller interface {
	Authorize(ctx context.Context) error
	SetPreset(ctx context.Context, volume float64) error
	CancelPreset(ctx context.Context) error
	ReadSale(ctx context.Context) (float64, error)
	Status(ctx context.Context) (pump.DispenserState, error)
	Suspend(ctx context.Context) error
	Resume(ctx context.Context) error
	Clear(ctx context.Context) error
	CompletePolicy() pump.CompletePolicy
}

type Runner struct {
	Log          *log2.Log
	ctl          Controller
	alive        *alive.Alive
	pollInterval time.Duration
}

func NewRunner(ctl Controller, pollInterval time.Duration, log *log2.Log) *Runner {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Runner{
		Log:          log,
		ctl:          ctl,
		alive:        alive.NewAlive(),
		pollInterval: pollInterval,
	}
}

// Run executes one sale to target litres and returns the last observed
// progress. The sale is declared complete only when the vendor policy says
// the reading reached the target, or the dispenser itself reports the sale
// closeable; an early closeable state returns the final reading as is.
func (self *Runner) Run(ctx context.Context, target float64) (pump.Progress, error) {
	var last pump.Progress
	if target <= 0 {
		return last, errors.Errorf("sale: invalid target=%f", target)
	}
	if !self.alive.Add(1) {
		return last, ErrStopped
	}
	defer self.alive.Done()

	if err := self.ctl.Authorize(ctx); err != nil {
		return last, errors.Annotate(err, "sale authorize")
	}

	policy := self.ctl.CompletePolicy()
	presetDone := false
	stopch := self.alive.StopChan()
	tick := time.NewTicker(self.pollInterval)
	defer tick.Stop()

	for {
		st, err := self.ctl.Status(ctx)
		if err != nil {
			return last, errors.Annotate(err, "sale status")
		}
		self.Log.Debugf("sale poll state=%s progress=%+v", st, last)

		switch {
		case st == pump.StateError:
			return last, errors.Errorf("sale: dispenser error state")

		case !presetDone && (st.IsReadyForPreset() || st.IsIdle()):
			if err := self.ctl.SetPreset(ctx, target); err != nil {
				return last, errors.Annotate(err, "sale preset")
			}
			presetDone = true

		case st.IsSaleCloseable():
			v, err := self.ctl.ReadSale(ctx)
			if err != nil {
				return last, errors.Annotate(err, "sale final read")
			}
			last = pump.TrackProgress(v, target, policy)
			if err := self.ctl.Clear(ctx); err != nil {
				return last, errors.Annotate(err, "sale clear")
			}
			return last, nil

		case st.IsDispensing() || st == pump.StatePaused || st == pump.StateStopped:
			v, err := self.ctl.ReadSale(ctx)
			if err != nil {
				return last, errors.Annotate(err, "sale read")
			}
			last = pump.TrackProgress(v, target, policy)
			if last.Complete {
				if err := self.ctl.Clear(ctx); err != nil {
					return last, errors.Annotate(err, "sale clear")
				}
				return last, nil
			}

		case st.IsSaleSuspended():
			// wait for resume, keep polling status only
		}

		select {
		case <-tick.C:
		case <-stopch:
			return last, ErrStopped
		case <-ctx.Done():
			return last, errors.Trace(ctx.Err())
		}
	}
}

func (self *Runner) Suspend(ctx context.Context) error { return self.ctl.Suspend(ctx) }
func (self *Runner) Resume(ctx context.Context) error  { return self.ctl.Resume(ctx) }

// Cancel aborts the preset and clears the sale record.
func (self *Runner) Cancel(ctx context.Context) error {
	errs := make([]error, 0, 2)
	errs = append(errs, self.ctl.CancelPreset(ctx))
	errs = append(errs, self.ctl.Clear(ctx))
	return helpers.FoldErrors(errs)
}

// Stop ends the poll loop and waits for a running sale poll to unwind.
func (self *Runner) Stop() {
	self.alive.Stop()
	self.alive.Wait()
}
