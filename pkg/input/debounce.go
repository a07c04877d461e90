package input

import "time"

// DefaultDebounce is the delay between the last pointer move and the
// broadcast it triggers.
const DefaultDebounce = 10 * time.Millisecond

// Timer is a pending call scheduled by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d. Implementations used with a Machine
// must run f on the goroutine that drives the machine.
type AfterFunc func(d time.Duration, f func()) Timer

// TimeAfterFunc wraps time.AfterFunc. It runs f on its own goroutine and is
// only suitable when the callback does its own synchronization.
func TimeAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer collapses bursts of triggers into one call after a quiet period.
// It is not safe for concurrent use.
type Debouncer struct {
	delay time.Duration
	after AfterFunc
	fn    func()

	timer Timer
	gen   uint64
}

// NewDebouncer returns a debouncer that calls fn once delay has passed
// without another Trigger.
func NewDebouncer(delay time.Duration, after AfterFunc, fn func()) *Debouncer {
	if after == nil {
		after = TimeAfterFunc
	}
	return &Debouncer{delay: delay, after: after, fn: fn}
}

// Trigger (re)starts the quiet period.
func (d *Debouncer) Trigger() {
	d.Cancel()
	gen := d.gen
	d.timer = d.after(d.delay, func() { d.fire(gen) })
}

// Cancel drops the pending call, if any. A timer that already fired but whose
// callback has not run yet is neutralized as well.
func (d *Debouncer) Cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool { return d.timer != nil }

func (d *Debouncer) fire(gen uint64) {
	if gen != d.gen {
		return
	}
	d.timer = nil
	d.fn()
}
