package aiofetch

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/http/httpguts"
)

// Config carries the process-wide knobs for a Client. Zero values pick
// the engine defaults.
type Config struct {
	// Slots is the number of concurrent request slots, DefaultSlots when 0.
	Slots int

	// Timeout is the default per-request deadline, DefaultTimeout when 0.
	Timeout time.Duration

	// Insecure accepts any TLS certificate on the built-in dialer
	// transport. Ignored when a custom Transport is set.
	Insecure bool

	// Transport creates pool-owned streams, DialerTransport when nil.
	Transport Transport
}

// Client drives a fixed pool of request slots through repeated Pump
// calls. It performs no blocking I/O and spawns no goroutines of its own;
// the host loop is the scheduler.
//
// A Client is single-threaded by contract: Request, Pump and Abort must
// not be called from two goroutines at once.
type Client struct {
	transport Transport
	slots     []request

	defaultHeaders string
	defaultTimeout time.Duration
	globalOnError  func(code int, err error)
}

// New creates a client whose streams are created lazily per request and
// destroyed on completion.
func New(config Config) *Client {
	if config.Slots <= 0 {
		config.Slots = DefaultSlots
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	transport := config.Transport
	if transport == nil {
		transport = &DialerTransport{Insecure: config.Insecure}
	}

	c := new(Client)
	c.transport = transport
	c.defaultTimeout = config.Timeout
	c.slots = make([]request, config.Slots)
	for i := range c.slots {
		c.slots[i].reset()
	}
	return c
}

// NewWithStreams creates a client with one caller-owned stream bound to
// each slot; the pool size equals len(streams), so an empty slice yields
// an empty pool on which every submission fails with PoolFull. Bound
// streams are stopped on terminal transitions but never destroyed, and
// stay bound across requests.
func NewWithStreams(config Config, streams []Stream) *Client {
	c := New(config)
	c.slots = make([]request, len(streams))
	for i := range streams {
		c.slots[i].reset()
		c.slots[i].stream = streams[i]
	}
	return c
}

// Get submits an HTTP GET.
func (c *Client) Get(url string, onResponse func(*Response)) int {
	return c.Request("GET", url, nil, "", 0, onResponse, nil)
}

// Post submits an HTTP POST with a body and content type.
func (c *Client) Post(url string, body []byte, contentType string, onResponse func(*Response)) int {
	return c.Request("POST", url, body, contentType, 0, onResponse, nil)
}

// PostJSON is a POST shorthand for application/json bodies.
func (c *Client) PostJSON(url string, body []byte, onResponse func(*Response)) int {
	return c.Request("POST", url, body, "application/json", 0, onResponse, nil)
}

// Put submits an HTTP PUT with a body and content type.
func (c *Client) Put(url string, body []byte, contentType string, onResponse func(*Response)) int {
	return c.Request("PUT", url, body, contentType, 0, onResponse, nil)
}

// PutJSON is a PUT shorthand for application/json bodies.
func (c *Client) PutJSON(url string, body []byte, onResponse func(*Response)) int {
	return c.Request("PUT", url, body, "application/json", 0, onResponse, nil)
}

// Patch submits an HTTP PATCH with a body and content type.
func (c *Client) Patch(url string, body []byte, contentType string, onResponse func(*Response)) int {
	return c.Request("PATCH", url, body, contentType, 0, onResponse, nil)
}

// PatchJSON is a PATCH shorthand for application/json bodies.
func (c *Client) PatchJSON(url string, body []byte, onResponse func(*Response)) int {
	return c.Request("PATCH", url, body, "application/json", 0, onResponse, nil)
}

// Delete submits an HTTP DELETE.
func (c *Client) Delete(url string, onResponse func(*Response)) int {
	return c.Request("DELETE", url, nil, "", 0, onResponse, nil)
}

// Head submits an HTTP HEAD.
func (c *Client) Head(url string, onResponse func(*Response)) int {
	return c.Request("HEAD", url, nil, "", 0, onResponse, nil)
}

// Request submits a generic request and returns the slot id (>= 0), or a
// negative error code when no slot could be armed. A zero timeout picks
// the configured default. onError may be nil, in which case per-request
// failures go to the global handler registered at submission time.
// Callbacks fire from inside Pump, never from Request.
func (c *Client) Request(method, url string, body []byte, contentType string, timeout time.Duration, onResponse func(*Response), onError func(code int, err error)) int {
	slot := c.allocSlot()
	if slot < 0 {
		c.reportGlobal(ErrCodePoolFull, ErrPoolFull)
		return ErrCodePoolFull
	}
	req := &c.slots[slot]

	if !validMethod(method) {
		req.reset()
		c.reportGlobal(ErrCodeInvalidURL, errors.Errorf("invalid method %q", method))
		return ErrCodeInvalidURL
	}

	host, port, path, useTLS, err := parseURL(url)
	if err != nil {
		req.reset()
		c.reportGlobal(ErrCodeInvalidURL, errors.Wrap(err, url))
		return ErrCodeInvalidURL
	}

	req.method = method
	req.host = host
	req.port = port
	req.path = path
	req.useTLS = useTLS
	if len(body) > 0 {
		req.payload = append([]byte(nil), body...)
	}
	req.timeout = timeout
	if req.timeout <= 0 {
		req.timeout = c.defaultTimeout
	}
	req.onResponse = onResponse
	req.onError = onError
	if req.onError == nil {
		req.onError = c.globalOnError // captured now, not at failure time
	}
	req.framing = buildFraming(method, host, port, path, useTLS, c.defaultHeaders, contentType, len(body))

	if req.stream == nil {
		s, err := c.transport.NewStream(useTLS)
		if err != nil {
			req.reset()
			c.reportGlobal(ErrCodeConnectFail, err)
			return ErrCodeConnectFail
		}
		req.stream = s
		req.owned = true
	}

	req.state = stateConnecting
	req.startTime = time.Now()
	req.active = true
	return slot
}

// Pump advances every active slot's state machine by one step of
// available work. Call it from the host loop as often as convenient; it
// never blocks and only consumes bytes the streams already report as
// available. Slots are visited in index order.
func (c *Client) Pump() {
	for i := range c.slots {
		if c.slots[i].active {
			c.processSlot(&c.slots[i])
		}
	}
}

// Pending returns the number of in-flight requests.
func (c *Client) Pending() int {
	n := 0
	for i := range c.slots {
		if c.slots[i].active {
			n++
		}
	}
	return n
}

// Abort cancels one request by id. The stream is stopped and the slot
// returns to idle without firing any callback. Aborting an idle or
// out-of-range id is a no-op.
func (c *Client) Abort(id int) {
	if id < 0 || id >= len(c.slots) {
		return
	}
	req := &c.slots[id]
	if !req.active {
		return
	}
	if req.stream != nil {
		req.stream.Close()
		if req.owned {
			req.stream = nil
			req.owned = false
		}
	}
	req.reset()
}

// AbortAll cancels every pending request.
func (c *Client) AbortAll() {
	for i := range c.slots {
		c.Abort(i)
	}
}

// SetHeader registers a default header line sent with every subsequent
// request. Name and value must be legal HTTP field tokens.
func (c *Client) SetHeader(name, value string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return errors.Errorf("invalid header name %q", name)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return errors.Errorf("invalid header value %q", value)
	}
	c.defaultHeaders += name + ": " + value + "\r\n"
	return nil
}

// ClearHeaders drops all default headers.
func (c *Client) ClearHeaders() {
	c.defaultHeaders = ""
}

// SetTimeout changes the default timeout for requests submitted after the
// call; in-flight requests keep their deadline.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.defaultTimeout = d
	}
}

// OnError registers the global error handler. Each request captures the
// handler in effect at submission, so later changes do not retroactively
// affect requests already in flight.
func (c *Client) OnError(fn func(code int, err error)) {
	c.globalOnError = fn
}

func (c *Client) allocSlot() int {
	for i := range c.slots {
		if !c.slots[i].active {
			c.slots[i].reset()
			return i
		}
	}
	return -1
}

// reportGlobal fires the global handler for submission-time failures that
// never occupied a slot (or whose slot was reclaimed before arming).
func (c *Client) reportGlobal(code int, err error) {
	if c.globalOnError != nil {
		c.globalOnError(code, err)
	}
}
