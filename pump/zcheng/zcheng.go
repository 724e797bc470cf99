// Package zcheng drives ZCheng-family pump heads speaking the binary
// protocol: fixed preamble, address, two function bytes, length, payload,
// trailing CRC-8.
//
// Wire: [0x7E][addr][0x00][fnHi][fnLo][len][payload...][CRC8]
// CRC-8 poly 0x93 over everything between preamble and CRC.
package zcheng

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"

	"github.com/juju/errors"

	"github.com/abhi-fuelbuddy/dispenser-sdk/crc"
	"github.com/abhi-fuelbuddy/dispenser-sdk/pump"
)

const (
	preamble byte = 0x7e
	// preamble + addr + 0x00 + fnHi + fnLo + len + crc
	minFrame = 7

	maxPresetLitres = 9999
)

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
)

var functions = map[string]uint16{
	CmdTotalizer:    0x0010,
	CmdReadSale:     0x0011,
	CmdReadStatus:   0x0012,
	CmdPumpStart:    0x0020,
	CmdPumpStop:     0x0021,
	CmdAuthorize:    0x0022,
	CmdSetPreset:    0x0030,
	CmdCancelPreset: 0x0031,
	CmdSuspend:      0x0032,
	CmdResume:       0x0033,
	CmdClear:        0x0034,
	CmdSwitchMode:   0x0040,
}

// Status token, first payload byte of a readStatus reply.
var statusTable = map[byte]pump.DispenserState{
	0x00: pump.StateIdle,
	0x01: pump.StateReadyForPreset,
	0x02: pump.StateActive,
	0x03: pump.StatePaused,
	0x04: pump.StateStopped,
	0x05: pump.StateSaleCloseable,
	0x06: pump.StateSaleSuspended,
	0x07: pump.StateError,
}

// Offsets into the hex-encoded payload string. Response-dependent slicing:
// each window is coupled to the command that produced the reply.
const (
	statusOffset = 0 // 1 byte token
	volumeWidth  = 8 // 4 bytes, centilitres big-endian
	ackOffset    = 0 // 1 byte result, 0x00 accepted
)

// Codec holds the per-instance command frames, baked once at construction,
// never reallocated per call.
type Codec struct {
	addr   byte
	static map[string][]byte
}

func NewCodec(addr byte) *Codec {
	self := &Codec{
		addr:   addr,
		static: make(map[string][]byte, len(functions)),
	}
	for name, fn := range functions {
		if name == CmdSetPreset {
			continue // the only dynamic frame
		}
		self.static[name] = self.build(fn, nil)
	}
	return self
}

func (self *Codec) build(fn uint16, payload []byte) []byte {
	body := make([]byte, 0, 5+len(payload))
	body = append(body, self.addr, 0x00, byte(fn>>8), byte(fn), byte(len(payload)))
	body = append(body, payload...)
	f := make([]byte, 0, len(body)+2)
	f = append(f, preamble)
	f = append(f, body...)
	f = append(f, crc.Table8(body))
	return f
}

// Encode returns the wire frame for a catalog command. arg is only used by
// setPreset (volume in litres, decimal string).
func (self *Codec) Encode(cmd, arg string) ([]byte, error) {
	if cmd == CmdSetPreset {
		volume, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, errors.Annotatef(err, "zcheng encode cmd=%s arg=%s", cmd, arg)
		}
		return self.EncodePreset(volume)
	}
	f, ok := self.static[cmd]
	if !ok {
		return nil, errors.Errorf("zcheng encode unknown cmd=%s", cmd)
	}
	out := make([]byte, len(f))
	copy(out, f)
	return out, nil
}

// EncodePreset builds the dynamic preset-volume frame: the fixed precursor,
// then the volume in centilitres as 4 big-endian bytes, CRC-8 accumulated
// across precursor then volume bytes.
func (self *Codec) EncodePreset(volume float64) ([]byte, error) {
	if volume <= 0 || volume > maxPresetLitres {
		return nil, errors.Errorf("zcheng preset volume=%f out of range", volume)
	}
	fn := functions[CmdSetPreset]
	cl := uint32(math.Round(volume * 100))
	precursor := []byte{self.addr, 0x00, byte(fn >> 8), byte(fn), 4}
	quantity := []byte{byte(cl >> 24), byte(cl >> 16), byte(cl >> 8), byte(cl)}

	var sum byte
	for _, b := range precursor {
		sum = crc.Accum8(sum, b)
	}
	for _, b := range quantity {
		sum = crc.Accum8(sum, b)
	}

	f := make([]byte, 0, len(precursor)+len(quantity)+2)
	f = append(f, preamble)
	f = append(f, precursor...)
	f = append(f, quantity...)
	f = append(f, sum)
	return f, nil
}

// Decode validates frame shape and CRC, returning the function code and
// hex-encoded payload. Semantic interpretation is the caller's step.
func (self *Codec) Decode(raw []byte) (pump.Reply, error) {
	if len(raw) < minFrame {
		return pump.Reply{}, &pump.FormatError{Raw: raw, Reason: "frame shorter than header"}
	}
	if raw[0] != preamble {
		return pump.Reply{}, &pump.FormatError{Raw: raw, Reason: "bad preamble"}
	}
	plen := int(raw[5])
	if len(raw) != minFrame+plen {
		return pump.Reply{}, &pump.FormatError{
			Raw:    raw,
			Reason: fmt.Sprintf("length byte=%d frame=%d", plen, len(raw)),
		}
	}
	body := raw[1 : len(raw)-1]
	actual := crc.Table8(body)
	received := raw[len(raw)-1]
	if actual != received {
		return pump.Reply{}, &pump.ChecksumError{
			Received: hex.EncodeToString([]byte{received}),
			Actual:   hex.EncodeToString([]byte{actual}),
		}
	}
	return pump.Reply{
		Command:  hex.EncodeToString(raw[3:5]),
		Data:     hex.EncodeToString(raw[6 : len(raw)-1]),
		Checksum: hex.EncodeToString([]byte{received}),
	}, nil
}

// Classify maps the status token to a canonical state. Total: unmapped
// tokens are StateUnknown, never an error.
func (self *Codec) Classify(r pump.Reply) pump.DispenserState {
	if len(r.Data) < statusOffset+2 {
		return pump.StateUnknown
	}
	token, err := strconv.ParseUint(r.Data[statusOffset:statusOffset+2], 16, 8)
	if err != nil {
		return pump.StateUnknown
	}
	if s, ok := statusTable[byte(token)]; ok {
		return s
	}
	return pump.StateUnknown
}

// CompletePolicy: this family reports integer-quantized volume, keep the
// loose tie-break.
func (self *Codec) CompletePolicy() pump.CompletePolicy { return pump.CompleteIntegerTelemetry }

// parseVolume reads a 4-byte big-endian centilitre value from the
// hex-encoded payload at offset off.
func parseVolume(r pump.Reply, off int) (float64, error) {
	if len(r.Data) < off+volumeWidth {
		return 0, &pump.FormatError{Raw: []byte(r.Data), Reason: "reply shorter than offset window"}
	}
	v, err := strconv.ParseUint(r.Data[off:off+volumeWidth], 16, 32)
	if err != nil {
		return 0, &pump.FormatError{Raw: []byte(r.Data), Reason: "volume not hex"}
	}
	return float64(v) / 100, nil
}
