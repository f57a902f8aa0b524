package realtime

import (
	"context"
	"os"
	"os/signal"
)

// Trigger is a source of reconnect requests: the app returning to the
// foreground, connectivity coming back, a credential change.
type Trigger interface {
	Signals() <-chan struct{}
}

// ChanTrigger is a Trigger fired by hand
type ChanTrigger struct {
	ch chan struct{}
}

// NewChanTrigger returns an unfired trigger
func NewChanTrigger() *ChanTrigger {
	return &ChanTrigger{ch: make(chan struct{}, 1)}
}

// Fire requests a reconnect. Requests coalesce while one is pending.
func (t *ChanTrigger) Fire() {
	select {
	case t.ch <- struct{}{}:
	default:
	}
}

// Signals implements Trigger
func (t *ChanTrigger) Signals() <-chan struct{} {
	return t.ch
}

// SignalTrigger fires when the process receives one of the given OS signals
type SignalTrigger struct {
	*ChanTrigger
	sigs chan os.Signal
}

// ForegroundSignal fires on sigs until ctx is done
func ForegroundSignal(ctx context.Context, sigs ...os.Signal) *SignalTrigger {
	t := &SignalTrigger{
		ChanTrigger: NewChanTrigger(),
		sigs:        make(chan os.Signal, 1),
	}
	signal.Notify(t.sigs, sigs...)

	go func() {
		defer signal.Stop(t.sigs)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.sigs:
				t.Fire()
			}
		}
	}()

	return t
}

// ConnectOn calls Connect for every signal of every trigger until ctx is done.
// It blocks.
func (m *Manager) ConnectOn(ctx context.Context, triggers ...Trigger) {
	merged := make(chan struct{}, 1)

	for _, t := range triggers {
		go func(t Trigger) {
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.Signals():
					select {
					case merged <- struct{}{}:
					default:
					}
				}
			}
		}(t)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-merged:
			m.logger.Debug("reconnect trigger fired")
			m.Connect()
		}
	}
}
