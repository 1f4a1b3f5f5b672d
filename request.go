package aiofetch

import "time"

// request tracks one in-flight exchange. Slots are allocated once at pool
// creation and reused; the pool index doubles as the request id.
type request struct {
	active bool
	state  int

	// target
	method string
	host   string
	port   int
	path   string
	useTLS bool

	// outgoing bytes, freed once sent
	framing []byte
	payload []byte

	timeout   time.Duration
	startTime time.Time

	// response parsing
	resp        Response
	lineBuf     []byte // header line assembly
	headersDone bool
	chunked     bool
	remaining   int // content-length countdown, -1 when unknown

	// bound stream; owned streams are created by the pool and dropped on
	// terminal transitions, caller-supplied ones survive slot reuse
	stream Stream
	owned  bool

	// captured at submission
	onResponse func(*Response)
	onError    func(code int, err error)
}

func (req *request) reset() {
	req.active = false
	req.state = stateIdle
	req.method = ""
	req.host = ""
	req.port = 0
	req.path = ""
	req.useTLS = false
	req.framing = nil
	req.payload = nil
	req.timeout = 0
	req.startTime = time.Time{}
	req.headersDone = false
	req.chunked = false
	req.remaining = -1
	if req.lineBuf == nil {
		req.lineBuf = make([]byte, 0, HeaderLineBufSize)
	} else {
		req.lineBuf = req.lineBuf[:0]
	}
	req.resp.reset()
	req.onResponse = nil
	req.onError = nil
	// NOTE: the stream binding is not reset; it is managed by the pool
}
