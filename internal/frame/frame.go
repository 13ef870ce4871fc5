package frame

import "bytes"

const (
	Start = '<'
	End   = '>'
)

// DefaultCapacity is the receive buffer size used when none is configured.
const DefaultCapacity = 256

// Encode wraps payload in start and end markers.
// Markers inside the payload are not escaped; the wire format has no escaping.
func Encode(payload string) []byte {
	result := make([]byte, 0, len(payload)+2)
	result = append(result, Start)
	result = append(result, payload...)
	result = append(result, End)
	return result
}

// ReadFrame scans data for the first complete frame.
// Returns the payload (markers stripped), the bytes after the end marker and
// whether a frame was found. Bytes before the first start marker are
// discarded; an unterminated frame is returned as remaining, starting at its
// start marker, so the caller can append more input and retry.
func ReadFrame(data []byte) (payload []byte, remaining []byte, ok bool) {
	start := bytes.IndexByte(data, Start)
	if start == -1 {
		return nil, nil, false
	}

	end := bytes.IndexByte(data[start+1:], End)
	if end == -1 {
		return nil, data[start:], false
	}
	end += start + 1

	return data[start+1 : end], data[end+1:], true
}
