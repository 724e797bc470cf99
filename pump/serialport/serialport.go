// Package serialport backs pump.Transport with a real serial port.
// The engine itself never touches port configuration; this is the
// provided collaborator for production wiring.
package serialport

import (
	"sync"

	"github.com/juju/errors"
	"go.bug.st/serial"

	"github.com/abhi-fuelbuddy/dispenser-sdk/log2"
)

type Port struct {
	log    *log2.Log
	lk     sync.Mutex
	port   serial.Port
	subs   map[int]func([]byte)
	subSeq int
	closed bool
}

// Open opens device 8N1 at baud and starts the read loop.
func Open(device string, baud int, log *log2.Log) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(device, mode)
	if err != nil {
		return nil, errors.Annotatef(err, "serialport open device=%s baud=%d", device, baud)
	}
	self := &Port{
		log:  log,
		port: p,
		subs: make(map[int]func([]byte)),
	}
	go self.readLoop()
	return self, nil
}

func (self *Port) Write(p []byte) error {
	_, err := self.port.Write(p)
	return errors.Trace(err)
}

func (self *Port) Subscribe(fn func([]byte)) func() {
	self.lk.Lock()
	defer self.lk.Unlock()
	id := self.subSeq
	self.subSeq++
	self.subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			self.lk.Lock()
			delete(self.subs, id)
			self.lk.Unlock()
		})
	}
}

func (self *Port) Close() error {
	self.lk.Lock()
	self.closed = true
	self.lk.Unlock()
	return self.port.Close()
}

func (self *Port) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := self.port.Read(buf)
		if err != nil {
			self.lk.Lock()
			closed := self.closed
			self.lk.Unlock()
			if !closed {
				self.log.Errorf("serialport read err=%v", err)
			}
			return
		}
		if n == 0 {
			continue
		}
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		self.dispatch(chunk)
	}
}

func (self *Port) dispatch(p []byte) {
	self.lk.Lock()
	fns := make([]func([]byte), 0, len(self.subs))
	for _, fn := range self.subs {
		fns = append(fns, fn)
	}
	self.lk.Unlock()
	if len(fns) == 0 {
		self.log.Debugf("serialport drop unclaimed chunk=%x", p)
		return
	}
	for _, fn := range fns {
		fn(p)
	}
}
