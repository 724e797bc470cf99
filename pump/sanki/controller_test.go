package sanki

import (
	"context"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhi-fuelbuddy/dispenser-sdk/log2"
	"github.com/abhi-fuelbuddy/dispenser-sdk/pump"
)

func testController(t testing.TB) (*Controller, *pump.MockTransport) {
	mock := pump.NewMockTransport(t)
	s := pump.NewSession(mock, time.Second, log2.NewTest(t, log2.LDebug))
	return NewController(s, ScopeDelimiter, log2.NewTest(t, log2.LDebug)), mock
}

// Commands are issued strictly one at a time, each awaited before the
// next. That serialized use is the only supported mode on one connection.
func TestControllerSale(t *testing.T) {
	t.Parallel()

	ctl, mock := testController(t)
	mock.Expect([]pump.MockR{
		pump.MockA("#AU#85%", "#OK%"),
		pump.MockA("#IDTRUCK42#71%", "#OK%"),
		pump.MockA("#PR0010.50#37%", "#OK%"),
		pump.MockA("ST\r", "#STBZ#58%"),
		pump.MockA("VL\r", "#VL0000009.99#02%"),
		pump.MockA("VL\r", "#VL0000010.00#76%"),
		pump.MockA("ST\r", "#STCL#45%"),
		pump.MockA("#CL#78%", "#OK%"),
	})
	ctx := context.Background()

	require.NoError(t, ctl.Authorize(ctx))
	require.NoError(t, ctl.VehicleTag(ctx, "TRUCK42"))
	require.NoError(t, ctl.SetPreset(ctx, 10.50))

	st, err := ctl.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsDispensing())

	v, err := ctl.ReadSale(ctx)
	require.NoError(t, err)
	p := pump.TrackProgress(v, 10.0, ctl.CompletePolicy())
	assert.False(t, p.Complete)
	assert.Equal(t, 99.90, p.Percentage)

	v, err = ctl.ReadSale(ctx)
	require.NoError(t, err)
	p = pump.TrackProgress(v, 10.0, ctl.CompletePolicy())
	assert.True(t, p.Complete)
	assert.Equal(t, 100.00, p.Percentage)

	st, err = ctl.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsSaleCloseable())
	require.NoError(t, ctl.Clear(ctx))

	assert.Equal(t, 0, mock.Remaining())
	assert.Equal(t, 0, mock.ListenerCount())
}

func TestControllerRejected(t *testing.T) {
	t.Parallel()

	ctl, mock := testController(t)
	mock.Expect([]pump.MockR{
		pump.MockA("#AU#85%", "#ER12%"),
	})
	err := ctl.Authorize(context.Background())
	require.Error(t, err)
	ce, ok := errors.Cause(err).(*pump.CommandError)
	require.True(t, ok, "err=%v", err)
	assert.Equal(t, CmdAuthorize, ce.Command)
	assert.Equal(t, "12", ce.Status)
}

func TestControllerSuspendResume(t *testing.T) {
	t.Parallel()

	ctl, mock := testController(t)
	mock.Expect([]pump.MockR{
		pump.MockA("#SP#98%", "#OK%"),
		pump.MockA("ST\r", "#STSU#70%"),
		pump.MockA("#RS#00%", "#OK%"),
	})
	ctx := context.Background()
	require.NoError(t, ctl.Suspend(ctx))
	st, err := ctl.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsSaleSuspended())
	require.NoError(t, ctl.Resume(ctx))
}

func TestControllerChecksumUntrusted(t *testing.T) {
	t.Parallel()

	ctl, mock := testController(t)
	mock.Expect([]pump.MockR{
		pump.MockA("VL\r", "#VL0000010.00#77%"), // corrupted on the wire
	})
	_, err := ctl.ReadSale(context.Background())
	require.True(t, pump.IsChecksum(err))
}

func TestControllerOffline(t *testing.T) {
	t.Parallel()

	mock := pump.NewMockTransport(t)
	s := pump.NewSession(mock, 20*time.Millisecond, log2.NewTest(t, log2.LDebug))
	ctl := NewController(s, ScopeDelimiter, log2.NewTest(t, log2.LDebug))
	mock.Expect([]pump.MockR{
		pump.MockA("ST\r", ""), // silence
		pump.MockA("ST\r", "#STID#43%"),
	})
	ctx := context.Background()
	assert.False(t, ctl.Online(ctx))
	assert.True(t, ctl.Online(ctx))
	assert.Equal(t, 0, mock.ListenerCount())
}

func TestCommandsCatalog(t *testing.T) {
	t.Parallel()

	ctl, mock := testController(t)
	mock.Expect([]pump.MockR{
		pump.MockA("VT\r", "#VT0000004142.02#40%"),
	})
	cmds := ctl.Commands()
	require.Contains(t, cmds, CmdTotalizer)
	out, err := cmds[CmdTotalizer](context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "4142.02", out)
}
