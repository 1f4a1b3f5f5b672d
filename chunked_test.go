package aiofetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripChunked(t *testing.T) {
	body := []byte("4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n")
	assert.Equal(t, "Wikipedia", string(stripChunked(body)))
}

func TestStripChunkedExtensions(t *testing.T) {
	body := []byte("4;name=val\r\nWiki\r\n0\r\n\r\n")
	assert.Equal(t, "Wiki", string(stripChunked(body)))
}

func TestStripChunkedMalformedSize(t *testing.T) {
	// bytes before the malformed size line are kept, the rest discarded
	body := []byte("4\r\nWiki\r\nzz!\r\npedia\r\n0\r\n\r\n")
	assert.Equal(t, "Wiki", string(stripChunked(body)))
}

func TestStripChunkedTruncatedTrailingChunk(t *testing.T) {
	// a chunk cut short by capacity truncation is discarded entirely
	body := []byte("4\r\nWiki\r\n5\r\npe")
	assert.Equal(t, "Wiki", string(stripChunked(body)))

	// unterminated size line
	body = []byte("4\r\nWiki\r\n5")
	assert.Equal(t, "Wiki", string(stripChunked(body)))
}

func TestStripChunkedEmpty(t *testing.T) {
	assert.Equal(t, "", string(stripChunked(nil)))
	assert.Equal(t, "", string(stripChunked([]byte("0\r\n\r\n"))))
}

func TestParseChunkSize(t *testing.T) {
	assert.Equal(t, 0x1a, parseChunkSize([]byte("1a")))
	assert.Equal(t, 0x1A, parseChunkSize([]byte("1A")))
	assert.Equal(t, 4, parseChunkSize([]byte("4;ext=1")))
	assert.Equal(t, 0, parseChunkSize([]byte("zz")))
	assert.Equal(t, 0, parseChunkSize(nil))
}
