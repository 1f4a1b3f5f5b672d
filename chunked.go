package aiofetch

import "bytes"

var crlf = []byte("\r\n")

// parseChunkSize reads the leading hex digits of a chunk-size line,
// ignoring chunk extensions and anything else after them. No digits
// parses as zero, which callers treat as the terminal chunk.
func parseChunkSize(line []byte) int {
	size := 0
	for _, c := range line {
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'a' && c <= 'f':
			d = int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = int(c-'A') + 10
		default:
			return size
		}
		size = size<<4 + d
		if size > BodyBufSize { // larger than anything we can store
			return size
		}
	}
	return size
}

// stripChunked rewrites an accumulated chunked transfer in place, parsing
// successive "size CRLF data CRLF" frames until a zero-size or malformed
// size line. An incomplete trailing chunk (short data or an unterminated
// size line) is discarded rather than emitted.
func stripChunked(body []byte) []byte {
	out := body[:0]
	pos := 0
	for pos < len(body) {
		lineEnd := bytes.Index(body[pos:], crlf)
		if lineEnd < 0 {
			break
		}
		size := parseChunkSize(bytes.TrimSpace(body[pos : pos+lineEnd]))
		if size <= 0 { // terminal chunk or malformed size line
			break
		}

		dataStart := pos + lineEnd + 2
		dataEnd := dataStart + size
		if dataEnd > len(body) { // truncated mid-chunk
			break
		}

		// write index always trails the read index, in-place copy is safe
		out = append(out, body[dataStart:dataEnd]...)
		pos = dataEnd + 2 // skip the CRLF after chunk data
	}
	return out
}
