package pump_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(`
pump {
  vendor = "sanki"
  device = "/dev/ttyUSB0"
  baud = 19200
  timeout_ms = 1500
  checksum_scope = "data"
}`))
	require.NoError(t, err)
	assert.Equal(t, "sanki", c.Vendor)
	assert.Equal(t, "/dev/ttyUSB0", c.Device)
	assert.Equal(t, 19200, c.Baud)
	assert.Equal(t, "data", c.ChecksumScope)
	assert.Equal(t, 1500*time.Millisecond, c.Timeout())
}

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(`pump { vendor = "zcheng" }`))
	require.NoError(t, err)
	assert.Equal(t, 9600, c.Baud)
	assert.Equal(t, 1, c.Address)
	assert.Equal(t, 2*time.Second, c.Timeout())
	assert.Equal(t, 500*time.Millisecond, c.PollInterval())
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`pump { vendor = `))
	require.Error(t, err)
}
