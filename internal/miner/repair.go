package miner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrProtocol is returned when the device's byte stream cannot be turned
// into a structured response even after framing repair.
var ErrProtocol = errors.New("unparseable miner response")

// Response is the decoded reply of one API command. Known shapes:
// "summary" carries a SUMMARY member (single-element list of flat maps),
// "stats" a STATS member (element 1 holds the per-chain keys).
type Response map[string]any

// RepairAndParse decodes a raw reply from the miner's status port.
//
// Antminer firmware emits broken framing: adjacent JSON objects are
// concatenated without a separator ("...}{...") and the stream ends in a
// stray control byte. All knowledge of that quirk lives here: trailing
// control and whitespace bytes are stripped, a comma is inserted between
// adjacent objects, and the stream is decoded as a list of 1..N objects
// merged into one addressable map (first occurrence of a key wins).
func RepairAndParse(raw []byte) (Response, error) {
	data := bytes.TrimRight(raw, "\x00 \t\r\n")
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty reply", ErrProtocol)
	}
	data = bytes.ReplaceAll(data, []byte("}{"), []byte("},{"))

	wrapped := make([]byte, 0, len(data)+2)
	wrapped = append(wrapped, '[')
	wrapped = append(wrapped, data...)
	wrapped = append(wrapped, ']')

	var docs []Response
	if err := json.Unmarshal(wrapped, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no objects in reply", ErrProtocol)
	}

	merged := make(Response)
	for _, doc := range docs {
		for k, v := range doc {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
	}
	return merged, nil
}
