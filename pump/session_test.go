package pump

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhi-fuelbuddy/dispenser-sdk/log2"
)

func TestTxReply(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport(t)
	mock.Expect([]MockR{
		{"7e01000010003e", "7e0100001004000651fac9"},
	})
	s := NewSession(mock, time.Second, log2.NewTest(t, log2.LDebug))

	raw, err := s.Tx(context.Background(), []byte{0x7e, 0x01, 0x00, 0x00, 0x10, 0x00, 0x3e})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x7e, 0x01, 0x00, 0x00, 0x10, 0x04, 0x00, 0x06, 0x51, 0xfa, 0xc9}, raw)
	assert.Equal(t, 0, mock.ListenerCount())
	assert.Equal(t, 0, mock.Remaining())
}

func TestTxTimeout(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport(t)
	mock.Expect([]MockR{
		{"31", ""}, // silent line
	})
	const window = 50 * time.Millisecond
	s := NewSession(mock, window, log2.NewTest(t, log2.LDebug))

	_, err := s.Tx(context.Background(), []byte{0x31})
	require.Error(t, err)
	require.True(t, IsTimeout(err))
	te := err.(*TimeoutError)
	assert.True(t, te.Elapsed >= window, "elapsed=%v window=%v", te.Elapsed, window)
	// the leak class being avoided: no stale handler after timeout
	assert.Equal(t, 0, mock.ListenerCount())
}

func TestTxContextCancel(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport(t)
	mock.Expect([]MockR{
		{"31", ""},
	})
	s := NewSession(mock, time.Minute, log2.NewTest(t, log2.LDebug))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := s.Tx(ctx, []byte{0x31})
	require.Error(t, err)
	assert.False(t, IsTimeout(err))
	assert.Equal(t, 0, mock.ListenerCount())
}

func TestTxEmptyFrame(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport(t)
	s := NewSession(mock, time.Second, nil)
	_, err := s.Tx(context.Background(), nil)
	require.Error(t, err)
}

// One request in flight per session. Commands must be issued sequentially;
// the session lock enforces that for callers sharing a Session, which is
// the only supported concurrent use of this engine.
func TestTxSerialized(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport(t)
	mock.Expect([]MockR{
		{"", "7e01000012050000000000cb"},
		{"", "7e01000012050000000000cb"},
		{"", "7e01000012050000000000cb"},
		{"", "7e01000012050000000000cb"},
	})
	s := NewSession(mock, time.Second, log2.NewTest(t, log2.LDebug))

	wg := sync.WaitGroup{}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, err := s.Tx(context.Background(), []byte{0x7e, 0x01, 0x00, 0x00, 0x12, 0x00, 0xdd})
			assert.NoError(t, err)
			assert.NotEmpty(t, raw)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, mock.ListenerCount())
	assert.Equal(t, 0, mock.Remaining())
}
