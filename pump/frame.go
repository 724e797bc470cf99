package pump

import (
	"context"
	"fmt"
)

// Reply is one decoded frame from a pump head.
// Invariant: unless SimpleAck, Checksum equals the value recomputed from
// Data per the vendor's scope rule; codecs enforce this in Decode.
type Reply struct {
	Command   string // 2-char logical command code
	Data      string
	Checksum  string // empty for simple acks
	SimpleAck bool
}

func (self Reply) String() string {
	if self.SimpleAck {
		return fmt.Sprintf("ack cmd=%s data=%q", self.Command, self.Data)
	}
	return fmt.Sprintf("cmd=%s data=%q chk=%s", self.Command, self.Data, self.Checksum)
}

// CommandFunc is one catalog entry invoked by name, CLI-friendly: the
// argument and result are plain strings.
type CommandFunc func(ctx context.Context, arg string) (string, error)

// Codec is the per-vendor capability interface. Vendors share no logic
// beyond the request/response shell, so composition happens through this
// interface, not a common base.
type Codec interface {
	Encode(cmd, arg string) ([]byte, error)
	Decode(raw []byte) (Reply, error)
	Classify(r Reply) DispenserState
}
