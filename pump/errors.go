package pump

import (
	"fmt"
	"time"

	"github.com/juju/errors"
)

// Error taxonomy. Decode and checksum failures surface as typed errors,
// never coerced into a default state. Retry policy belongs to callers.

type Timeouter interface {
	Timeout() bool
}

// TimeoutError: no reply within the session window. Recoverable, the
// subscription was cleaned up and the connection is usable again.
type TimeoutError struct {
	Elapsed time.Duration
}

func (self *TimeoutError) Error() string {
	return fmt.Sprintf("pump: no reply in %v", self.Elapsed)
}
func (self *TimeoutError) Timeout() bool { return true }

// FormatError: reply matches no known frame shape. Treat the dispenser
// as unresponsive.
type FormatError struct {
	Raw    []byte
	Reason string
}

func (self *FormatError) Error() string {
	return fmt.Sprintf("pump: bad frame %s raw=%x", self.Reason, self.Raw)
}

// ChecksumError: frame shape matched but the checksum disagreed. The data
// is untrusted and must not drive state decisions.
type ChecksumError struct {
	Received string
	Actual   string
}

func (self *ChecksumError) Error() string {
	return fmt.Sprintf("pump: invalid checksum received=%s actual=%s", self.Received, self.Actual)
}

// CommandError: reply decoded fine but semantically indicates rejection.
type CommandError struct {
	Command string
	Status  string
}

func (self *CommandError) Error() string {
	return fmt.Sprintf("pump: command=%s rejected status=%s", self.Command, self.Status)
}

func IsTimeout(err error) bool {
	t, ok := errors.Cause(err).(Timeouter)
	return ok && t.Timeout()
}

func IsChecksum(err error) bool {
	_, ok := errors.Cause(err).(*ChecksumError)
	return ok
}

func IsFormat(err error) bool {
	_, ok := errors.Cause(err).(*FormatError)
	return ok
}
