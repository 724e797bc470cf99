// Separate package for pump related config structure, keeps vendor
// packages free of the hcl dependency.
package pump_config

import (
	"os"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"

	"github.com/abhi-fuelbuddy/dispenser-sdk/helpers"
)

type Config struct { //nolint:maligned
	Vendor        string `hcl:"vendor"` // zcheng|sanki
	Device        string `hcl:"device"`
	Baud          int    `hcl:"baud"`
	Address       int    `hcl:"address"`
	TimeoutMs     int    `hcl:"timeout_ms"`
	PollMs        int    `hcl:"poll_ms"`
	ChecksumScope string `hcl:"checksum_scope"` // delimiter|data
	LogDebug      bool   `hcl:"log_debug"`
}

type root struct {
	Pump Config `hcl:"pump"`
}

func Parse(bs []byte) (*Config, error) {
	r := root{}
	if err := hcl.Unmarshal(bs, &r); err != nil {
		return nil, errors.Annotatef(err, "pump config unmarshal content='%s'", string(bs))
	}
	c := r.Pump
	if c.Baud == 0 {
		c.Baud = 9600
	}
	if c.Address == 0 {
		c.Address = 1
	}
	return &c, nil
}

func ReadFile(path string) (*Config, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "pump config path=%s", path)
	}
	return Parse(bs)
}

func (c *Config) Timeout() time.Duration {
	return helpers.IntMillisecondDefault(c.TimeoutMs, 2*time.Second)
}

func (c *Config) PollInterval() time.Duration {
	return helpers.IntMillisecondDefault(c.PollMs, 500*time.Millisecond)
}
