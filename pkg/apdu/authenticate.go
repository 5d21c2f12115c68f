package apdu

import (
	"encoding/binary"

	"github.com/go-u2f/authenticator/pkg/u2ftypes"
)

const authRequestHeaderLen = u2ftypes.HashSize*2 + 1

// authenticate implements AUTHENTICATE (INS=0x02): request is
// challenge_hash(32) || application_hash(32) || handle_len(1) || handle.
func (d *Dispatcher) authenticate(p1 byte, body []byte) []byte {
	cond, ok := parseSignCondition(p1)
	if !ok {
		return statusResponse(nil, SWWrongData)
	}
	if len(body) < authRequestHeaderLen {
		return statusResponse(nil, SWWrongLength)
	}

	var challengeHash, applicationHash u2ftypes.Hash
	copy(challengeHash[:], body[:32])
	copy(applicationHash[:], body[32:64])

	handleLen := int(body[64])
	if len(body) != authRequestHeaderLen+handleLen {
		return statusResponse(nil, SWWrongLength)
	}
	handle := u2ftypes.Handle(body[65 : 65+handleLen])

	// No point arming a presence mechanism for a request that will be
	// rejected regardless of the answer.
	checkPresence := cond != SignCheckOnly

	signer, counter, present, err := d.backend.Authenticate(applicationHash, handle, checkPresence)
	if err != nil {
		d.logger.Info("apdu authenticate unknown handle", "error", err)
		return statusResponse(nil, SWWrongData)
	}
	if signer == nil {
		return statusResponse(nil, SWWrongData)
	}

	if cond == SignCheckOnly || (cond == SignRequirePresence && !present) {
		return statusResponse(nil, SWConditionsNotSatisfied)
	}

	header := make([]byte, 5)
	if present {
		header[0] = 1
	}
	binary.BigEndian.PutUint32(header[1:], counter)

	digestInput := make([]byte, 0, u2ftypes.HashSize+len(header)+u2ftypes.HashSize)
	digestInput = append(digestInput, applicationHash[:]...)
	digestInput = append(digestInput, header...)
	digestInput = append(digestInput, challengeHash[:]...)

	sig, err := signer.Sign(d.hasher.Sum256(digestInput))
	if err != nil {
		d.logger.Error("apdu authenticate sign failed", "error", err)
		return statusResponse(nil, SWConditionsNotSatisfied)
	}

	resp := append(header, sig...)
	return statusResponse(resp, SWNoError)
}
