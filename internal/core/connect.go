package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/SimplyPrint/nfc-diag/internal/logging"
)

// MinRetryInterval is the shortest wait between connect attempts. Polling
// faster than this never picked up a tag on the ACR122U.
const MinRetryInterval = 50 * time.Millisecond

// ConnState is the state of a Connector.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateWaitingForTag
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateWaitingForTag:
		return "WaitingForTag"
	case StateConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// Clock provides the retry wait so tests don't sleep.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Connector waits for a tag on one reader by retrying a shared connect at a
// fixed rate. There is no attempt limit; only ctx ends the wait early.
type Connector struct {
	dial     func() (*Conn, error)
	out      io.Writer
	clock    Clock
	interval time.Duration
	state    ConnState
	retries  int
}

// ConnectorOption configures a Connector.
type ConnectorOption func(*Connector)

// WithClock replaces the wall clock used between attempts.
func WithClock(clock Clock) ConnectorOption {
	return func(c *Connector) {
		c.clock = clock
	}
}

// WithRetryInterval sets the wait between attempts. Values below
// MinRetryInterval are raised to it.
func WithRetryInterval(d time.Duration) ConnectorOption {
	return func(c *Connector) {
		c.interval = max(d, MinRetryInterval)
	}
}

// NewConnector prepares a tag wait on reader. Prompts go to out.
func NewConnector(s *Session, reader string, out io.Writer, opts ...ConnectorOption) *Connector {
	return newConnector(func() (*Conn, error) { return s.ConnectShared(reader) }, out, opts...)
}

func newConnector(dial func() (*Conn, error), out io.Writer, opts ...ConnectorOption) *Connector {
	if out == nil {
		out = io.Discard
	}
	c := &Connector{
		dial:     dial,
		out:      out,
		clock:    realClock{},
		interval: MinRetryInterval,
		state:    StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Connector) State() ConnState {
	return c.state
}

// Retries returns how many waits have elapsed between attempts.
func (c *Connector) Retries() int {
	return c.retries
}

// Connect blocks until a tag is connected or ctx is done.
// The tag prompt is printed once; other failure codes once each.
func (c *Connector) Connect(ctx context.Context) (*Conn, error) {
	prompted := false
	reported := make(map[uint32]bool)

	for {
		c.state = StateConnecting
		conn, err := c.dial()
		if err == nil {
			c.state = StateConnected
			logging.Info(logging.CatReader, "Tag detected", map[string]any{
				"reader":  conn.Reader(),
				"retries": c.retries,
			})
			return conn, nil
		}

		code := ServiceCode(err)
		switch code {
		case CodeNoSmartcard, CodeRemovedCard, CodeTimeout:
			if !prompted {
				fmt.Fprintln(c.out, "Failed to connect: Please now hold an NFC tag near the reader...")
				prompted = true
			}
		default:
			if !reported[code] {
				if code == 0 {
					fmt.Fprintf(c.out, "Failed to connect: %v\n", err)
				} else {
					fmt.Fprintf(c.out, "Failed to connect: 0x%x\n", code)
				}
				reported[code] = true
				logging.Warn(logging.CatReader, "Unexpected connect failure, retrying", map[string]any{
					"error": err.Error(),
				})
			}
		}

		c.state = StateWaitingForTag
		select {
		case <-ctx.Done():
			c.state = StateDisconnected
			return nil, ctx.Err()
		case <-c.clock.After(c.interval):
		}
		c.retries++
	}
}
