package aiofetch

import "strings"

type headerPair struct {
	name  string
	value string
}

// Response accumulates one parsed reply. Storage is fixed-capacity:
// header pairs beyond MaxHeaders are dropped, and the body is truncated
// at BodyBufSize. The pointer handed to a response callback is only valid
// for the duration of the callback; the slot reuses it afterwards.
type Response struct {
	statusCode    int
	contentLength int
	headers       [MaxHeaders]headerPair
	headerCount   int
	body          []byte
}

// StatusCode returns the parsed status code, 0 if none was seen.
func (r *Response) StatusCode() int {
	return r.statusCode
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

// ContentLength returns the length reported by the server, -1 if unknown.
func (r *Response) ContentLength() int {
	return r.contentLength
}

func (r *Response) Body() []byte {
	return r.body
}

func (r *Response) BodyString() string {
	return string(r.body)
}

// Header retrieves a response header value by name, case-insensitively.
// When duplicates exist the first match wins; a missing header returns "".
func (r *Response) Header(name string) string {
	for i := 0; i < r.headerCount; i++ {
		if strings.EqualFold(r.headers[i].name, name) {
			return r.headers[i].value
		}
	}
	return ""
}

// HeaderCount returns the number of stored header pairs.
func (r *Response) HeaderCount() int {
	return r.headerCount
}

func (r *Response) addHeader(name, value string) {
	if r.headerCount < MaxHeaders {
		r.headers[r.headerCount] = headerPair{name, value}
		r.headerCount++
	}
}

func (r *Response) reset() {
	r.statusCode = 0
	r.contentLength = -1
	r.headerCount = 0
	if r.body == nil {
		r.body = make([]byte, 0, BodyBufSize)
	} else {
		r.body = r.body[:0]
	}
}
