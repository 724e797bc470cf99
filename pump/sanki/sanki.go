// Package sanki drives Sanki-family pump heads speaking the ASCII protocol.
//
// Data frame: #<2-char cmd><data>#<2-digit decimal checksum>%
// Simple acknowledgement: #<TOKEN>% with no checksum section.
// Plain query commands are terminated with carriage return.
//
// Observed firmware revisions disagree on the checksum recomputation scope
// (data alone vs data plus the closing '#'), so the scope is a codec
// parameter decided by conformance against captured traffic, not guessed.
package sanki

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"github.com/abhi-fuelbuddy/dispenser-sdk/crc"
	"github.com/abhi-fuelbuddy/dispenser-sdk/pump"
)

// ChecksumScope selects the byte range the 2-digit checksum covers.
type ChecksumScope uint8

const (
	// ScopeDelimiter: data plus the trailing '#'. Default.
	ScopeDelimiter ChecksumScope = iota
	// ScopeData: data alone.
	ScopeData
)

func ParseChecksumScope(s string) (ChecksumScope, error) {
	switch s {
	case "", "delimiter":
		return ScopeDelimiter, nil
	case "data":
		return ScopeData, nil
	}
	return ScopeDelimiter, errors.Errorf("sanki: unknown checksum scope=%s", s)
}

// Logical command names, the vendor catalog.
const (
	CmdTotalizer    = "totalizer"
	CmdReadSale     = "readSale"
	CmdReadStatus   = "readStatus"
	CmdPumpStart    = "pumpStart"
	CmdPumpStop     = "pumpStop"
	CmdAuthorize    = "authorize"
	CmdSetPreset    = "setPreset"
	CmdCancelPreset = "cancelPreset"
	CmdSuspend      = "suspend"
	CmdResume       = "resume"
	CmdClear        = "clear"
	CmdSwitchMode   = "switchMode"
	CmdVehicleTag   = "vehicleTag"
)

type command struct {
	code string
	wrap bool // checksummed wrapper; false = plain, CR terminated
}

var commands = map[string]command{
	CmdTotalizer:    {"VT", false},
	CmdReadSale:     {"VL", false},
	CmdReadStatus:   {"ST", false},
	CmdPumpStart:    {"GO", false},
	CmdPumpStop:     {"HA", false},
	CmdAuthorize:    {"AU", true},
	CmdSetPreset:    {"PR", true},
	CmdCancelPreset: {"PC", true},
	CmdSuspend:      {"SP", true},
	CmdResume:       {"RS", true},
	CmdClear:        {"CL", true},
	CmdSwitchMode:   {"MD", true},
	CmdVehicleTag:   {"ID", true},
}

// Status tokens carried in ST replies.
var statusTable = map[string]pump.DispenserState{
	"ID": pump.StateIdle,
	"BZ": pump.StateActive,
	"PA": pump.StatePaused,
	"HA": pump.StateStopped,
	"RQ": pump.StateReadyForPreset,
	"CL": pump.StateSaleCloseable,
	"SU": pump.StateSaleSuspended,
	"ER": pump.StateError,
}

const (
	ackAccepted = "OK"
	ackRejected = "ER"
)

var (
	reData = regexp.MustCompile(`^#([^#]*)#([0-9]{2})%$`)
	reAck  = regexp.MustCompile(`^#([^#%]+)%$`)
)

type Codec struct {
	scope ChecksumScope
}

func NewCodec(scope ChecksumScope) *Codec {
	return &Codec{scope: scope}
}

func (self *Codec) checksum(content string) string {
	if self.scope == ScopeData {
		return crc.Decimal(content)
	}
	return crc.Decimal(content + "#")
}

// Encode builds the wire bytes for a catalog command. Plain commands get a
// carriage return, the rest the checksummed wrapper.
func (self *Codec) Encode(cmd, arg string) ([]byte, error) {
	c, ok := commands[cmd]
	if !ok {
		return nil, errors.Errorf("sanki encode unknown cmd=%s", cmd)
	}
	content := c.code + arg
	if !c.wrap {
		return []byte(content + "\r"), nil
	}
	return []byte("#" + content + "#" + self.checksum(content) + "%"), nil
}

// normalize accepts either raw ASCII or a hex-encoded byte string:
// hardware bridges deliver both forms. A leading '#' marks raw ASCII.
func normalize(raw []byte) (string, error) {
	s := strings.TrimRight(string(raw), "\r\n")
	if strings.HasPrefix(s, "#") {
		return s, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return "", &pump.FormatError{Raw: raw, Reason: "neither ASCII frame nor hex"}
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// Decode parses a reply frame.
// One '#' means a simple acknowledgement, no checksum to verify. Two mean
// a data frame whose checksum must match the configured scope.
func (self *Codec) Decode(raw []byte) (pump.Reply, error) {
	s, err := normalize(raw)
	if err != nil {
		return pump.Reply{}, err
	}
	if strings.Count(s, "#") < 2 {
		m := reAck.FindStringSubmatch(s)
		if m == nil {
			return pump.Reply{}, &pump.FormatError{Raw: raw, Reason: "no frame pattern matched"}
		}
		token := m[1]
		r := pump.Reply{SimpleAck: true}
		if len(token) > 2 {
			r.Command, r.Data = token[:2], token[2:]
		} else {
			r.Command = token
		}
		return r, nil
	}
	m := reData.FindStringSubmatch(s)
	if m == nil {
		return pump.Reply{}, &pump.FormatError{Raw: raw, Reason: "no frame pattern matched"}
	}
	content, received := m[1], m[2]
	if actual := self.checksum(content); actual != received {
		return pump.Reply{}, &pump.ChecksumError{Received: received, Actual: actual}
	}
	r := pump.Reply{Checksum: received}
	if len(content) > 2 {
		r.Command, r.Data = content[:2], content[2:]
	} else {
		r.Command = content
	}
	return r, nil
}

// Classify maps an ST reply token to a canonical state. Total: unmapped
// tokens are StateUnknown, never an error.
func (self *Codec) Classify(r pump.Reply) pump.DispenserState {
	if s, ok := statusTable[strings.TrimSpace(r.Data)]; ok {
		return s
	}
	return pump.StateUnknown
}

// CompletePolicy: this family reports decimal volume, strict comparison.
func (self *Codec) CompletePolicy() pump.CompletePolicy { return pump.CompleteAtTarget }

func parseVolume(r pump.Reply) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Data), 64)
	if err != nil {
		return 0, &pump.FormatError{Raw: []byte(r.Data), Reason: "volume not decimal"}
	}
	return v, nil
}

// formatPreset renders a preset volume the fixed width the head expects.
func formatPreset(volume float64) string {
	return fmt.Sprintf("%07.2f", volume)
}
