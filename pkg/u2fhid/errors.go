package u2fhid

import "errors"

var errShortReport = errors.New("u2fhid: report is not 64 bytes")
