package editor

import (
	"sync"
	"time"
)

const DefaultNotificationDuration = time.Second * 3

type Notification struct {
	Text    string
	IsError bool
}

/*
Notifier holds the single transient message a session can show at a
time. Showing a new message replaces the current one and restarts the
dismissal clock, so there is exactly one dismissal and it happens at the
latest message's expiry. The dismissal timer is owned here: it is
stopped whenever it is superseded, hidden, or the notifier is closed.
*/
type Notifier struct {
	mu         sync.Mutex
	duration   time.Duration
	text       string
	isError    bool
	visible    bool
	timer      *time.Timer
	generation int
	closed     bool
}

func NewNotifier(duration time.Duration) *Notifier {
	if duration <= 0 {
		duration = DefaultNotificationDuration
	}

	return &Notifier{
		duration: duration,
	}
}

func (n *Notifier) Show(text string) {
	n.ShowFor(text, false, n.duration)
}

func (n *Notifier) ShowError(text string) {
	n.ShowFor(text, true, n.duration)
}

func (n *Notifier) ShowFor(text string, isError bool, duration time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	if duration <= 0 {
		duration = n.duration
	}

	n.stopTimer()
	n.generation++
	generation := n.generation

	n.text = text
	n.isError = isError
	n.visible = true

	n.timer = time.AfterFunc(duration, func() {
		n.expire(generation)
	})
}

func (n *Notifier) Hide() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.generation++
	n.stopTimer()
	n.visible = false
}

/*
Current returns the active notification and whether one is visible.
*/
func (n *Notifier) Current() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return Notification{
		Text:    n.text,
		IsError: n.isError,
	}, n.visible
}

/*
Close releases the dismissal timer. Nothing fires and nothing can be
shown after the owner is torn down.
*/
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	n.generation++
	n.stopTimer()
	n.visible = false
}

func (n *Notifier) expire(generation int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// A newer message took over while this timer was in flight.
	if generation != n.generation {
		return
	}

	n.visible = false
	n.timer = nil
}

func (n *Notifier) stopTimer() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
