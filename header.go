package aiofetch

import (
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"
	"golang.org/x/net/http/httpguts"
)

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}

// validMethod reports whether method is a legal HTTP token.
//
//     token          = 1*<any CHAR except CTLs or separators>
func validMethod(method string) bool {
	return len(method) > 0 && strings.IndexFunc(method, isNotToken) == -1
}

// buildFraming assembles the request line and header block:
//
//   METHOD SP path SP HTTP/1.1 CRLF
//   Host: host[:port]
//   <default headers>
//   [Content-Type] [Content-Length]
//   Connection: close
//   CRLF
//
// The port is elided when it matches the scheme default. The engine never
// requests keep-alive.
func buildFraming(method, host string, port int, path string, useTLS bool, defaultHeaders, contentType string, bodyLen int) []byte {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	bb.WriteString(method)
	bb.WriteByte(' ')
	bb.WriteString(path)
	bb.WriteString(" HTTP/1.1\r\n")

	bb.WriteString("Host: ")
	bb.WriteString(host)
	if (useTLS && port != 443) || (!useTLS && port != 80) {
		bb.WriteByte(':')
		bb.B = strconv.AppendInt(bb.B, int64(port), 10)
	}
	bb.WriteString("\r\n")

	if defaultHeaders != "" {
		bb.WriteString(defaultHeaders)
	}

	if contentType != "" {
		bb.WriteString("Content-Type: ")
		bb.WriteString(contentType)
		bb.WriteString("\r\n")
	}

	if bodyLen > 0 {
		bb.WriteString("Content-Length: ")
		bb.B = strconv.AppendInt(bb.B, int64(bodyLen), 10)
		bb.WriteString("\r\n")
	}

	bb.WriteString("Connection: close\r\n\r\n")

	framing := make([]byte, bb.Len())
	copy(framing, bb.B)
	return framing
}
