package aiofetch

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

var protoPrefix = []byte("HTTP/")

// processSlot advances one active slot by a single step of available
// work. It is the only mutator of slot state outside Request and Abort.
func (c *Client) processSlot(req *request) {
	if req.stream == nil {
		return
	}

	// the timeout guard preempts the state's own logic for this cycle
	if req.state != stateComplete && req.state != stateError {
		if time.Since(req.startTime) > req.timeout {
			c.finishWithError(req, ErrCodeTimeout, ErrTimeout)
			return
		}
	}

	switch req.state {
	case stateConnecting:
		if req.stream.Connected() {
			req.state = stateSending
			return
		}
		if !req.stream.Connect(req.host, req.port) {
			c.finishWithError(req, ErrCodeConnectFail, ErrConnectFail)
			return
		}
		// a synchronous connect advances on the same cycle; an async one
		// is picked up by the Connected check on a later cycle
		if req.stream.Connected() {
			req.state = stateSending
		}

	case stateSending:
		written, _ := req.stream.Write(req.framing)
		if written > 0 && len(req.payload) > 0 {
			n, _ := req.stream.Write(req.payload)
			written += n
		}
		if written == 0 {
			c.finishWithError(req, ErrCodeSendFail, ErrSendFail)
			return
		}
		req.framing = nil // free outgoing bytes
		req.payload = nil
		req.state = stateRecvHeaders

	case stateRecvHeaders:
		c.recvHeaders(req)

	case stateRecvBody:
		c.recvBody(req)
	}
}

// recvHeaders drains available bytes into the line buffer and parses
// completed lines until the blank line ending the header block.
func (c *Client) recvHeaders(req *request) {
	for req.stream.Available() > 0 {
		b, err := req.stream.ReadByte()
		if err != nil {
			break
		}
		if b != '\n' {
			if len(req.lineBuf) < HeaderLineBufSize {
				req.lineBuf = append(req.lineBuf, b)
			}
			continue
		}

		line := req.lineBuf
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}

		if len(line) == 0 { // blank line ends the header block
			req.headersDone = true
			req.lineBuf = req.lineBuf[:0]
			req.state = stateRecvBody
			return // body parsing starts on the next cycle
		}

		parseHeaderLine(req, line)
		req.lineBuf = req.lineBuf[:0]
	}

	// connection closed before the header block ended
	if !req.stream.Connected() && req.stream.Available() == 0 {
		if req.resp.statusCode > 0 {
			c.finishWithResponse(req) // best effort
		} else {
			c.finishWithError(req, ErrCodeParseFail, ErrParseFail)
		}
	}
}

// parseHeaderLine handles one non-empty header line: the status line
// first, then Name: Value pairs. Lines without a colon are dropped.
func parseHeaderLine(req *request, line []byte) {
	if req.resp.statusCode == 0 && bytes.HasPrefix(line, protoPrefix) {
		if sp := bytes.IndexByte(line, ' '); sp > 0 {
			code := line[sp+1:]
			if sp2 := bytes.IndexByte(code, ' '); sp2 >= 0 {
				code = code[:sp2]
			}
			n, _ := strconv.Atoi(string(code))
			req.resp.statusCode = n
		}
		return
	}

	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return
	}
	name := string(bytes.TrimSpace(line[:colon]))
	value := string(bytes.TrimSpace(line[colon+1:]))

	req.resp.addHeader(name, value)

	if strings.EqualFold(name, "Content-Length") {
		n, _ := strconv.Atoi(value) // unparsable counts as zero
		req.resp.contentLength = n
		req.remaining = n
	}
	if strings.EqualFold(name, "Transfer-Encoding") && strings.EqualFold(value, "chunked") {
		req.chunked = true
	}
}

// recvBody drains available bytes into the body buffer. Chunked framing
// is accumulated raw and stripped once the stream closes.
func (c *Client) recvBody(req *request) {
	for req.stream.Available() > 0 {
		b, err := req.stream.ReadByte()
		if err != nil {
			break
		}
		req.resp.body = append(req.resp.body, b)

		if !req.chunked && req.remaining > 0 {
			req.remaining--
			if req.remaining == 0 { // content-length satisfied
				c.finishWithResponse(req)
				return
			}
		}

		if len(req.resp.body) >= BodyBufSize { // truncate, not an error
			if req.chunked {
				req.resp.body = stripChunked(req.resp.body)
			}
			c.finishWithResponse(req)
			return
		}
	}

	if !req.stream.Connected() && req.stream.Available() == 0 {
		if req.chunked {
			req.resp.body = stripChunked(req.resp.body)
		}
		c.finishWithResponse(req)
	}
}

// finishWithError is one of the two terminal paths. It stops the stream,
// fires the error callback exactly once and returns the slot to idle.
func (c *Client) finishWithError(req *request, code int, err error) {
	if !req.active { // outcome already dispatched
		return
	}
	req.state = stateError
	c.teardown(req)
	if req.onError != nil {
		req.onError(code, err)
	}
	req.reset()
}

// finishWithResponse is the successful terminal path.
func (c *Client) finishWithResponse(req *request) {
	if !req.active {
		return
	}
	req.state = stateComplete
	c.teardown(req)
	if req.onResponse != nil {
		req.onResponse(&req.resp)
	}
	req.reset()
}

// teardown stops the bound stream and drops it if the pool owns it.
func (c *Client) teardown(req *request) {
	if req.stream != nil {
		req.stream.Close()
		if req.owned {
			req.stream = nil
			req.owned = false
		}
	}
}
