package apdu

// parseEnvelope splits a raw APDU request into its header fields and body.
// The request is CLA INS P1 P2, optionally followed by a 3-byte extended
// length prefix 0x00 Lc_hi Lc_lo, Lc bytes of body, and an optional 2-byte
// Le. Short APDUs (single-byte Lc/Le) are not produced by any caller in
// this module and are not accepted here.
func parseEnvelope(request []byte) (cla byte, ins Instruction, p1, p2 byte, body []byte, err error) {
	if len(request) < 4 {
		return 0, 0, 0, 0, nil, errShortRequest
	}

	cla = request[0]
	ins = Instruction(request[1])
	p1 = request[2]
	p2 = request[3]
	rest := request[4:]

	switch {
	case len(rest) == 0:
		return cla, ins, p1, p2, nil, nil

	case len(rest) == 2:
		// Le only; no request body.
		return cla, ins, p1, p2, nil, nil

	case len(rest) >= 3 && rest[0] == 0x00:
		lc := int(rest[1])<<8 | int(rest[2])
		rest = rest[3:]
		if len(rest) < lc {
			return 0, 0, 0, 0, nil, errMalformedLength
		}
		body = rest[:lc]
		rest = rest[lc:]
		if len(rest) != 0 && len(rest) != 2 {
			return 0, 0, 0, 0, nil, errMalformedLength
		}
		return cla, ins, p1, p2, body, nil

	default:
		return 0, 0, 0, 0, nil, errMalformedLength
	}
}

func statusResponse(body []byte, sw StatusWord) []byte {
	resp := make([]byte, len(body)+2)
	copy(resp, body)
	resp[len(body)] = byte(sw >> 8)
	resp[len(body)+1] = byte(sw)
	return resp
}

func parseSignCondition(p1 byte) (SignCondition, bool) {
	switch SignCondition(p1) {
	case SignCheckOnly, SignRequirePresence, SignAlways:
		return SignCondition(p1), true
	default:
		return 0, false
	}
}
