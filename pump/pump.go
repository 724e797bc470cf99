// Package pump is the generic command/response engine for fuel dispenser
// pump heads speaking a vendor protocol over a shared byte stream.
// It correlates one outstanding request to its asynchronous reply with
// timeout recovery, and defines the capability interface implemented by
// vendor codecs (see zcheng, sanki).
package pump

import (
	"context"
	"sync"
	"time"

	"github.com/juju/errors"

	"github.com/abhi-fuelbuddy/dispenser-sdk/log2"
)

const DefaultTimeout = 2 * time.Second

// Transport is the external serial connection collaborator. The engine
// never opens or configures the port.
type Transport interface {
	Write(p []byte) error
	// Subscribe registers a handler for incoming byte chunks and returns
	// its removal function. The removal function must be idempotent.
	Subscribe(fn func(p []byte)) (cancel func())
}

// Session correlates requests with replies on one Transport.
type Session struct {
	Log     *log2.Log
	lk      sync.Mutex
	tr      Transport
	timeout time.Duration
}

func NewSession(tr Transport, timeout time.Duration, log *log2.Log) *Session {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Session{
		Log:     log,
		tr:      tr,
		timeout: timeout,
	}
}

func (self *Session) Timeout() time.Duration { return self.timeout }

// Tx writes one frame and returns the first incoming chunk as the reply.
// Exactly one of reply/error happens per call and the transport
// subscription is removed on every path, success, timeout or cancel.
//
// Tx holds the session lock, so commands issued through one Session are
// serialized. There is no request multiplexing: two sessions sharing a
// Transport race for each other's replies. Don't do that.
func (self *Session) Tx(ctx context.Context, frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, errors.New("pump: Tx empty frame")
	}
	self.lk.Lock()
	defer self.lk.Unlock()

	ch := make(chan []byte, 1)
	cancel := self.tr.Subscribe(func(p []byte) {
		// single-shot: chunks after the first are not ours to consume
		select {
		case ch <- p:
		default:
		}
	})
	defer cancel()

	tbegin := time.Now()
	if err := self.tr.Write(frame); err != nil {
		return nil, errors.Annotatef(err, "pump.Tx write frame=%x", frame)
	}
	timer := time.NewTimer(self.timeout)
	defer timer.Stop()
	select {
	case raw := <-ch:
		self.Log.Debugf("pump.Tx\n> (%02d) %x\n< (%02d) %x", len(frame), frame, len(raw), raw)
		return raw, nil
	case <-timer.C:
		elapsed := time.Since(tbegin)
		self.Log.Debugf("pump.Tx timeout frame=%x elapsed=%v", frame, elapsed)
		return nil, &TimeoutError{Elapsed: elapsed}
	case <-ctx.Done():
		return nil, errors.Trace(ctx.Err())
	}
}
