package attnbin

import (
	"bytes"
	"encoding/binary"

	"github.com/r3d91ll/attngraph/pkg/dataset"
	"github.com/r3d91ll/attngraph/pkg/errors"
)

// Decode parses a complete attnbin buffer. Half-precision layers are
// widened to float32. Trailing bytes beyond the declared sections are
// ignored.
func Decode(data []byte) (*dataset.Dataset, error) {
	f, err := Open(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return f.Dataset()
}

// DecodeHeader parses only the length prefix and header of data.
func DecodeHeader(data []byte) (*Header, int, error) {
	if len(data) < prefixLen {
		return nil, 0, errors.Malformed("file is %d bytes, too short for the header length", len(data))
	}
	n := binary.LittleEndian.Uint32(data)
	if uint64(n) > uint64(len(data)-prefixLen) {
		return nil, 0, errors.Malformed("header length %d exceeds remaining %d bytes", n, len(data)-prefixLen).
			WithContext("header_length", itoa(int64(n)))
	}
	h, err := parseHeader(data[prefixLen : prefixLen+int(n)])
	if err != nil {
		return nil, 0, err
	}
	return h, int(n), nil
}
