package aiofetch

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func newTestRouter() *httprouter.Router {
	router := httprouter.New()
	router.GET("/hello", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("X-Server", "aiofetch-test")
		fmt.Fprint(w, "Welcome!")
	})
	router.POST("/echo", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		body, _ := ioutil.ReadAll(r.Body)
		w.Write(body)
	})
	return router
}

// pumpUntil drives the client until the flag flips or the deadline passes
func pumpUntil(c *Client, done *bool, wait time.Duration) {
	deadline := time.Now().Add(wait)
	for !*done && time.Now().Before(deadline) {
		c.Pump()
		time.Sleep(time.Millisecond)
	}
}

func TestDialerTransportGet(t *testing.T) {
	srv := httptest.NewServer(newTestRouter())
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second})

	var done bool
	var status int
	var body, server string
	id := c.Get(srv.URL+"/hello", func(r *Response) {
		done = true
		status = r.StatusCode()
		body = r.BodyString()
		server = r.Header("x-server")
	})
	assert.True(t, id >= 0)

	pumpUntil(c, &done, 5*time.Second)
	assert.True(t, done)
	assert.Equal(t, 200, status)
	assert.Equal(t, "Welcome!", body)
	assert.Equal(t, "aiofetch-test", server)
	assert.Equal(t, 0, c.Pending())
}

func TestDialerTransportPost(t *testing.T) {
	srv := httptest.NewServer(newTestRouter())
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second})

	var done bool
	var body string
	id := c.PostJSON(srv.URL+"/echo", []byte(`{"k":"v"}`), func(r *Response) {
		done = true
		body = r.BodyString()
	})
	assert.True(t, id >= 0)

	pumpUntil(c, &done, 5*time.Second)
	assert.True(t, done)
	assert.Equal(t, `{"k":"v"}`, body)
}

func TestDialerTransportConnectRefused(t *testing.T) {
	c := New(Config{Timeout: 2 * time.Second})

	var done bool
	var code int
	// a port nothing listens on; the dial error surfaces as ConnectFail
	c.Request("GET", "http://127.0.0.1:1/", nil, "", 0, nil, func(ec int, err error) {
		done = true
		code = ec
	})

	pumpUntil(c, &done, 5*time.Second)
	assert.True(t, done)
	assert.Equal(t, ErrCodeConnectFail, code)
}

func TestGaioTransportGet(t *testing.T) {
	srv := httptest.NewServer(newTestRouter())
	defer srv.Close()

	transport, err := NewGaioTransport()
	assert.Nil(t, err)
	defer transport.Close()

	c := New(Config{Timeout: 5 * time.Second, Transport: transport})

	var done bool
	var status int
	var body string
	id := c.Get(srv.URL+"/hello", func(r *Response) {
		done = true
		status = r.StatusCode()
		body = r.BodyString()
	})
	assert.True(t, id >= 0)

	pumpUntil(c, &done, 5*time.Second)
	assert.True(t, done)
	assert.Equal(t, 200, status)
	assert.Equal(t, "Welcome!", body)
}

func TestGaioTransportRejectsTLS(t *testing.T) {
	transport, err := NewGaioTransport()
	assert.Nil(t, err)
	defer transport.Close()

	_, err = transport.NewStream(true)
	assert.Equal(t, ErrTLSUnsupported, err)
}

func TestConnStreamWriteDoesNotBlock(t *testing.T) {
	transport := &DialerTransport{}
	st, err := transport.NewStream(false)
	assert.Nil(t, err)
	s := st.(*connStream)

	// net.Pipe is completely unbuffered, so a direct conn.Write would
	// stall until the peer reads
	local, peer := net.Pipe()
	defer peer.Close()
	s.mu.Lock()
	s.conn = local
	s.mu.Unlock()
	go s.drain(local, 0)
	defer s.Close()

	payload := bytes.Repeat([]byte("x"), 64*1024)
	n, err := s.Write(payload) // returns before the peer reads anything
	assert.Nil(t, err)
	assert.Equal(t, len(payload), n)

	got := make([]byte, 0, len(payload))
	chunk := make([]byte, 4096)
	for len(got) < len(payload) {
		m, err := peer.Read(chunk)
		assert.Nil(t, err)
		got = append(got, chunk[:m]...)
	}
	assert.Equal(t, payload, got)
}

func TestGaioStreamDropsStaleCompletions(t *testing.T) {
	transport, err := NewGaioTransport()
	assert.Nil(t, err)
	defer transport.Close()

	st, err := transport.NewStream(false)
	assert.Nil(t, err)
	s := st.(*gaioStream)

	local, peer := net.Pipe()
	defer local.Close()
	defer peer.Close()
	s.mu.Lock()
	s.conn = local
	s.mu.Unlock()

	assert.True(t, s.push(local, []byte("old")))
	assert.Equal(t, 3, s.Available())

	s.Close() // rewinds the stream for reuse by the next request

	// a read completion for the old conn arriving after Close must not
	// leak the previous response into the rewound buffer
	assert.False(t, s.push(local, []byte("old")))
	assert.Equal(t, 0, s.Available())

	// nor may a stale error mark the rewound stream disconnected
	s.markDisconnected(local)
	s.mu.Lock()
	disconnected := s.disconnected
	s.mu.Unlock()
	assert.False(t, disconnected)
}

func TestConcurrentRequests(t *testing.T) {
	srv := httptest.NewServer(newTestRouter())
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second})

	remaining := DefaultSlots
	for i := 0; i < DefaultSlots; i++ {
		id := c.Get(srv.URL+"/hello", func(r *Response) {
			remaining--
		})
		assert.Equal(t, i, id)
	}
	assert.Equal(t, DefaultSlots, c.Pending())

	done := false
	deadline := time.Now().Add(5 * time.Second)
	for !done && time.Now().Before(deadline) {
		c.Pump()
		done = remaining == 0
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, 0, remaining)
	assert.Equal(t, 0, c.Pending())
}
