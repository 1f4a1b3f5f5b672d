package aiofetch

import (
	"io"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/xtaci/gaio"
)

// GaioTransport feeds its streams from a single gaio.Watcher completion
// loop, sharing one poller goroutine across every connection. Plaintext
// only: gaio drives raw sockets, so https targets need DialerTransport.
type GaioTransport struct {
	watcher *gaio.Watcher

	// DialTimeout bounds a single dial attempt, DefaultTimeout when zero.
	DialTimeout time.Duration
}

func NewGaioTransport() (*GaioTransport, error) {
	watcher, err := gaio.NewWatcher()
	if err != nil {
		return nil, err
	}
	t := new(GaioTransport)
	t.watcher = watcher
	go t.loop()
	return t, nil
}

func (t *GaioTransport) NewStream(useTLS bool) (Stream, error) {
	if useTLS {
		return nil, ErrTLSUnsupported
	}
	return &gaioStream{t: t}, nil
}

// Close shuts the shared watcher down; all streams disconnect.
func (t *GaioTransport) Close() error {
	return t.watcher.Close()
}

// loop waits for IO completions and routes them back to their streams
func (t *GaioTransport) loop() {
	for {
		results, err := t.watcher.WaitIO()
		if err != nil {
			log.Println(err)
			return
		}

		for _, res := range results {
			s, ok := res.Context.(*gaioStream)
			if !ok {
				continue
			}
			switch res.Operation {
			case gaio.OpRead: // read completion event
				if res.Error != nil || res.Size == 0 {
					s.markDisconnected(res.Conn)
					t.watcher.Free(res.Conn)
					continue
				}
				if !s.push(res.Conn, res.Buffer[:res.Size]) {
					// stale completion for a conn the stream already
					// closed; Close has freed it
					continue
				}
				// re-arm reading on this conn
				if err := t.watcher.Read(s, res.Conn, nil); err != nil {
					s.markDisconnected(res.Conn)
				}
			case gaio.OpWrite: // write completion event
				if res.Error != nil {
					s.markDisconnected(res.Conn)
					t.watcher.Free(res.Conn)
				}
			}
		}
	}
}

type gaioStream struct {
	t *GaioTransport

	mu           sync.Mutex
	conn         net.Conn
	buf          []byte // received, unread bytes
	dialing      bool
	dialErr      error
	disconnected bool
	gen          int
}

func (s *gaioStream) Connect(host string, port int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return true
	}
	if s.dialErr != nil {
		return false
	}
	if !s.dialing {
		s.dialing = true
		go s.dial(net.JoinHostPort(host, strconv.Itoa(port)), s.gen)
	}
	return true
}

func (s *gaioStream) dial(addr string, gen int) {
	dialTimeout := s.t.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = DefaultTimeout
	}
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)

	s.mu.Lock()
	if s.gen != gen { // slot was aborted meanwhile
		s.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}
	s.dialing = false
	if err != nil {
		s.dialErr = err
		s.mu.Unlock()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	// hand the conn over to the watcher and start reading
	if err := s.t.watcher.Read(s, conn, nil); err != nil {
		s.markDisconnected(conn)
	}
}

// push buffers a read completion. Completions raced against Close carry
// a conn the stream no longer holds and are dropped, so a closed slot
// never leaks a previous response into its next request.
func (s *gaioStream) push(conn net.Conn, p []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conn != s.conn {
		return false
	}
	s.buf = append(s.buf, p...)
	return true
}

func (s *gaioStream) markDisconnected(conn net.Conn) {
	s.mu.Lock()
	if conn == s.conn {
		s.disconnected = true
	}
	s.mu.Unlock()
}

func (s *gaioStream) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil && !s.disconnected
}

func (s *gaioStream) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

func (s *gaioStream) ReadByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return 0, io.EOF
	}
	b := s.buf[0]
	s.buf = s.buf[1:]
	return b, nil
}

// Write submits an async write to the watcher. Completion is reported
// through the loop; a later failure surfaces as a disconnection.
func (s *gaioStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return 0, ErrSendFail
	}
	if err := s.t.watcher.Write(s, conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close frees the conn from the watcher and rewinds the stream so it can
// be connected again by a later request.
func (s *gaioStream) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.gen++
	s.conn = nil
	s.buf = nil
	s.dialing = false
	s.dialErr = nil
	s.disconnected = false
	s.mu.Unlock()

	if conn != nil {
		return s.t.watcher.Free(conn)
	}
	return nil
}
