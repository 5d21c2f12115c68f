package backend

import (
	"github.com/fxamacker/cbor/v2"
)

// recordMetadata is a small forward-compatible envelope stored alongside
// each credential record: encode what's known today as CBOR so a future
// column addition doesn't require a schema migration, and decode best-
// effort on read.
type recordMetadata struct {
	Algorithm  string `cbor:"alg"`
	EnrolledAt int64  `cbor:"iat"`
}

func encodeMetadata(m recordMetadata) []byte {
	b, err := cbor.Marshal(m)
	if err != nil {
		// recordMetadata has no types cbor can't encode; this would only
		// fail on a programming error.
		return nil
	}
	return b
}

func decodeMetadata(b []byte) (recordMetadata, bool) {
	var m recordMetadata
	if err := cbor.Unmarshal(b, &m); err != nil {
		return recordMetadata{}, false
	}
	return m, true
}
