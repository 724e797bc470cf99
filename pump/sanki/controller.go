package sanki

import (
	"context"
	"strconv"

	"github.com/juju/errors"

	"github.com/abhi-fuelbuddy/dispenser-sdk/log2"
	"github.com/abhi-fuelbuddy/dispenser-sdk/pump"
)

// Controller composes the codec with a session, one method per catalog
// command. Action commands are acknowledged with #OK% or rejected with
// #ER<code>%.
type Controller struct {
	Log     *log2.Log
	codec   *Codec
	session *pump.Session
}

func NewController(session *pump.Session, scope ChecksumScope, log *log2.Log) *Controller {
	return &Controller{
		Log:     log,
		codec:   NewCodec(scope),
		session: session,
	}
}

func (self *Controller) Codec() pump.Codec { return self.codec }

func (self *Controller) tx(ctx context.Context, cmd, arg string) (pump.Reply, error) {
	frame, err := self.codec.Encode(cmd, arg)
	if err != nil {
		return pump.Reply{}, errors.Trace(err)
	}
	raw, err := self.session.Tx(ctx, frame)
	if err != nil {
		return pump.Reply{}, errors.Annotatef(err, "sanki cmd=%s", cmd)
	}
	r, err := self.codec.Decode(raw)
	if err != nil {
		return pump.Reply{}, errors.Annotatef(err, "sanki cmd=%s", cmd)
	}
	return r, nil
}

func (self *Controller) txAck(ctx context.Context, cmd, arg string) error {
	r, err := self.tx(ctx, cmd, arg)
	if err != nil {
		return err
	}
	switch {
	case r.SimpleAck && r.Command == ackAccepted:
		return nil
	case r.SimpleAck && r.Command == ackRejected:
		return &pump.CommandError{Command: cmd, Status: r.Data}
	}
	return &pump.CommandError{Command: cmd, Status: r.Command + r.Data}
}

// Totalizer reads the lifetime dispensed-volume counter, litres.
func (self *Controller) Totalizer(ctx context.Context) (float64, error) {
	r, err := self.tx(ctx, CmdTotalizer, "")
	if err != nil {
		return 0, err
	}
	return parseVolume(r)
}

// ReadSale reads the running or final sale volume, litres.
func (self *Controller) ReadSale(ctx context.Context) (float64, error) {
	r, err := self.tx(ctx, CmdReadSale, "")
	if err != nil {
		return 0, err
	}
	return parseVolume(r)
}

func (self *Controller) Status(ctx context.Context) (pump.DispenserState, error) {
	r, err := self.tx(ctx, CmdReadStatus, "")
	if err != nil {
		return pump.StateUnknown, err
	}
	return self.codec.Classify(r), nil
}

// Online is true iff the head produced a parseable status reply at all.
func (self *Controller) Online(ctx context.Context) bool {
	_, err := self.Status(ctx)
	return err == nil
}

func (self *Controller) Authorize(ctx context.Context) error {
	return self.txAck(ctx, CmdAuthorize, "")
}

func (self *Controller) SetPreset(ctx context.Context, volume float64) error {
	return self.txAck(ctx, CmdSetPreset, formatPreset(volume))
}

func (self *Controller) CancelPreset(ctx context.Context) error {
	return self.txAck(ctx, CmdCancelPreset, "")
}

func (self *Controller) PumpStart(ctx context.Context) error {
	return self.txAck(ctx, CmdPumpStart, "")
}

func (self *Controller) PumpStop(ctx context.Context) error {
	return self.txAck(ctx, CmdPumpStop, "")
}

func (self *Controller) Suspend(ctx context.Context) error {
	return self.txAck(ctx, CmdSuspend, "")
}

func (self *Controller) Resume(ctx context.Context) error {
	return self.txAck(ctx, CmdResume, "")
}

func (self *Controller) Clear(ctx context.Context) error {
	return self.txAck(ctx, CmdClear, "")
}

func (self *Controller) SwitchMode(ctx context.Context) error {
	return self.txAck(ctx, CmdSwitchMode, "")
}

// VehicleTag writes the vehicle identifier shown on the sale record.
func (self *Controller) VehicleTag(ctx context.Context, tag string) error {
	return self.txAck(ctx, CmdVehicleTag, tag)
}

func (self *Controller) CompletePolicy() pump.CompletePolicy { return self.codec.CompletePolicy() }

// Commands is the catalog by name for interactive use.
func (self *Controller) Commands() map[string]pump.CommandFunc {
	return map[string]pump.CommandFunc{
		CmdTotalizer: func(ctx context.Context, arg string) (string, error) {
			v, err := self.Totalizer(ctx)
			return strconv.FormatFloat(v, 'f', 2, 64), err
		},
		CmdReadSale: func(ctx context.Context, arg string) (string, error) {
			v, err := self.ReadSale(ctx)
			return strconv.FormatFloat(v, 'f', 2, 64), err
		},
		CmdReadStatus: func(ctx context.Context, arg string) (string, error) {
			s, err := self.Status(ctx)
			return s.String(), err
		},
		CmdAuthorize: func(ctx context.Context, arg string) (string, error) {
			return "", self.Authorize(ctx)
		},
		CmdSetPreset: func(ctx context.Context, arg string) (string, error) {
			volume, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return "", errors.Annotatef(err, "setPreset arg=%s", arg)
			}
			return "", self.SetPreset(ctx, volume)
		},
		CmdCancelPreset: func(ctx context.Context, arg string) (string, error) {
			return "", self.CancelPreset(ctx)
		},
		CmdPumpStart: func(ctx context.Context, arg string) (string, error) {
			return "", self.PumpStart(ctx)
		},
		CmdPumpStop: func(ctx context.Context, arg string) (string, error) {
			return "", self.PumpStop(ctx)
		},
		CmdSuspend: func(ctx context.Context, arg string) (string, error) {
			return "", self.Suspend(ctx)
		},
		CmdResume: func(ctx context.Context, arg string) (string, error) {
			return "", self.Resume(ctx)
		},
		CmdClear: func(ctx context.Context, arg string) (string, error) {
			return "", self.Clear(ctx)
		},
		CmdSwitchMode: func(ctx context.Context, arg string) (string, error) {
			return "", self.SwitchMode(ctx)
		},
		CmdVehicleTag: func(ctx context.Context, arg string) (string, error) {
			return "", self.VehicleTag(ctx, arg)
		},
	}
}
