package apdu

import "errors"

var (
	errShortRequest    = errors.New("apdu: request shorter than a four-byte header")
	errMalformedLength = errors.New("apdu: malformed extended-length envelope")
)
