// Package netprobe detects regained network connectivity by periodically
// opening a TCP connection to a well known address.
package netprobe

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/HMasataka/scoreline/internal/logging"
)

// DialFunc matches net.Dialer.DialContext
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Probe reports transitions from unreachable to reachable
type Probe struct {
	address  string
	interval time.Duration
	dial     DialFunc
	logger   *logging.Logger

	signals chan struct{}

	mu        sync.Mutex
	reachable bool
	known     bool
}

// New creates a probe for address checked every interval
func New(address string, interval time.Duration, logger *logging.Logger) *Probe {
	d := &net.Dialer{Timeout: interval / 2}
	return NewWithDialer(address, interval, d.DialContext, logger)
}

// NewWithDialer creates a probe using dial to test reachability
func NewWithDialer(address string, interval time.Duration, dial DialFunc, logger *logging.Logger) *Probe {
	return &Probe{
		address:  address,
		interval: interval,
		dial:     dial,
		logger:   logger.WithFields(map[string]any{"probe": address}),
		signals:  make(chan struct{}, 1),
	}
}

// Signals fires once per unreachable to reachable transition
func (p *Probe) Signals() <-chan struct{} {
	return p.signals
}

// Reachable returns the last observed reachability
func (p *Probe) Reachable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reachable
}

// Run checks reachability until ctx is done
func (p *Probe) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.check(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.check(ctx)
		}
	}
}

func (p *Probe) check(ctx context.Context) {
	conn, err := p.dial(ctx, "tcp", p.address)
	up := err == nil
	if conn != nil {
		conn.Close()
	}

	p.mu.Lock()
	regained := p.known && !p.reachable && up
	p.reachable = up
	p.known = true
	p.mu.Unlock()

	if !regained {
		return
	}

	p.logger.Info("network connectivity regained")

	select {
	case p.signals <- struct{}{}:
	default:
		// a signal is already pending
	}
}
