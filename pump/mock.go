package pump

// Scripted Transport to test vendor drivers without hardware.
import (
	"encoding/hex"
	"sync"
	"testing"
)

// MockR is one expected exchange, hex encoded. Empty Request skips the
// request assertion; empty Response keeps the line silent so timeout paths
// can be exercised.
type MockR struct {
	Request  string
	Response string
}

// MockA builds MockR from ASCII strings, convenience for text protocols.
func MockA(request, response string) MockR {
	r := MockR{}
	if request != "" {
		r.Request = hex.EncodeToString([]byte(request))
	}
	if response != "" {
		r.Response = hex.EncodeToString([]byte(response))
	}
	return r
}

type MockTransport struct {
	t      testing.TB
	lk     sync.Mutex
	subs   map[int]func([]byte)
	subSeq int
	expect []MockR
	pos    int
}

func NewMockTransport(t testing.TB) *MockTransport {
	return &MockTransport{
		t:    t,
		subs: make(map[int]func([]byte)),
	}
}

func (self *MockTransport) Expect(rs []MockR) {
	self.lk.Lock()
	defer self.lk.Unlock()
	self.expect = append(self.expect, rs...)
}

func (self *MockTransport) Write(p []byte) error {
	self.lk.Lock()
	if self.pos >= len(self.expect) {
		self.lk.Unlock()
		self.t.Errorf("mock: unexpected write %x", p)
		return nil
	}
	r := self.expect[self.pos]
	self.pos++
	self.lk.Unlock()

	sent := hex.EncodeToString(p)
	if r.Request != "" && sent != r.Request {
		self.t.Errorf("mock: write=%s expected=%s", sent, r.Request)
	}
	if r.Response != "" {
		b, err := hex.DecodeString(r.Response)
		if err != nil {
			self.t.Fatalf("mock: invalid response hex=%s err=%v", r.Response, err)
		}
		self.dispatch(b)
	}
	return nil
}

func (self *MockTransport) Subscribe(fn func([]byte)) func() {
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

// ListenerCount is how tests assert the no-leak invariant of Session.Tx.
func (self *MockTransport) ListenerCount() int {
	self.lk.Lock()
	defer self.lk.Unlock()
	return len(self.subs)
}

// Remaining expectations not yet consumed.
func (self *MockTransport) Remaining() int {
	self.lk.Lock()
	defer self.lk.Unlock()
	return len(self.expect) - self.pos
}

func (self *MockTransport) dispatch(p []byte) {
	self.lk.Lock()
	fns := make([]func([]byte), 0, len(self.subs))
	for _, fn := range self.subs {
		fns = append(fns, fn)
	}
	self.lk.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}
