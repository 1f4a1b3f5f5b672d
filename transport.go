package aiofetch

import (
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"sync"
	"time"
)

// transport buffer high-water mark; the fill goroutine parks until the
// pump loop drains below it
const connStreamBufSize = 8192

// DialerTransport creates streams backed by net.Conn, with crypto/tls for
// https targets. Dialing and reading happen on background goroutines that
// fill a bounded buffer, so the Stream calls themselves never block.
type DialerTransport struct {
	// DialTimeout bounds a single dial attempt, DefaultTimeout when zero.
	DialTimeout time.Duration

	// Insecure skips certificate verification on TLS streams.
	Insecure bool
}

func (t *DialerTransport) NewStream(useTLS bool) (Stream, error) {
	dialTimeout := t.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = DefaultTimeout
	}
	s := &connStream{
		useTLS:      useTLS,
		insecure:    t.Insecure,
		dialTimeout: dialTimeout,
	}
	s.drained = sync.NewCond(&s.mu)
	s.sendable = sync.NewCond(&s.mu)
	return s, nil
}

type connStream struct {
	useTLS      bool
	insecure    bool
	dialTimeout time.Duration

	mu       sync.Mutex
	drained  *sync.Cond
	sendable *sync.Cond
	conn     net.Conn
	buf      []byte   // received, unread bytes
	wq       [][]byte // queued outgoing writes
	dialing  bool
	dialErr  error
	eof      bool
	gen      int // bumped on Close, stale goroutines check it
}

func (s *connStream) Connect(host string, port int) bool {
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
		go s.dial(net.JoinHostPort(host, strconv.Itoa(port)), host, s.gen)
	}
	return true
}

func (s *connStream) dial(addr, serverName string, gen int) {
	conn, err := net.DialTimeout("tcp", addr, s.dialTimeout)
	if err == nil && s.useTLS {
		tc := tls.Client(conn, &tls.Config{
			ServerName:         serverName,
			InsecureSkipVerify: s.insecure,
		})
		if err = tc.Handshake(); err != nil {
			conn.Close()
		} else {
			conn = tc
		}
	}

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

	go s.fill(conn, gen)
	go s.drain(conn, gen)
}

// fill pumps conn into the bounded buffer until EOF or Close
func (s *connStream) fill(conn net.Conn, gen int) {
	chunk := make([]byte, 1024)
	for {
		n, err := conn.Read(chunk)

		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		if n > 0 {
			s.buf = append(s.buf, chunk[:n]...)
		}
		if err != nil {
			s.eof = true
			s.mu.Unlock()
			return
		}
		for len(s.buf) >= connStreamBufSize && s.gen == gen {
			s.drained.Wait()
		}
		stale := s.gen != gen
		s.mu.Unlock()
		if stale {
			return
		}
	}
}

// drain flushes queued writes to conn until Close; a write error surfaces
// as a disconnection, like the gaio transport
func (s *connStream) drain(conn net.Conn, gen int) {
	for {
		s.mu.Lock()
		for len(s.wq) == 0 && s.gen == gen {
			s.sendable.Wait()
		}
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		p := s.wq[0]
		s.wq = s.wq[1:]
		s.mu.Unlock()

		if _, err := conn.Write(p); err != nil {
			s.mu.Lock()
			if s.gen == gen {
				s.eof = true
			}
			s.mu.Unlock()
			return
		}
	}
}

func (s *connStream) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil && !s.eof
}

func (s *connStream) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

func (s *connStream) ReadByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return 0, io.EOF
	}
	b := s.buf[0]
	s.buf = s.buf[1:]
	if len(s.buf) < connStreamBufSize {
		s.drained.Signal()
	}
	return b, nil
}

// Write queues p for the drain goroutine and returns at once; a later
// transmit failure surfaces as a disconnection.
func (s *connStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.eof {
		return 0, ErrSendFail
	}
	queued := make([]byte, len(p))
	copy(queued, p)
	s.wq = append(s.wq, queued)
	s.sendable.Signal()
	return len(p), nil
}

// Close disconnects and rewinds the stream to its pristine state, so a
// caller-supplied stream can be reused by a later request on the slot.
func (s *connStream) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.gen++
	s.conn = nil
	s.buf = nil
	s.wq = nil
	s.dialing = false
	s.dialErr = nil
	s.eof = false
	s.drained.Broadcast()
	s.sendable.Broadcast()
	s.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}
