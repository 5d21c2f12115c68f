package apdu

import "github.com/go-u2f/authenticator/pkg/u2ftypes"

// register implements REGISTER (INS=0x01): request is
// challenge_hash(32) || application_hash(32).
func (d *Dispatcher) register(body []byte) []byte {
	if len(body) != registerRequestLen {
		return statusResponse(nil, SWWrongLength)
	}

	var challengeHash, applicationHash u2ftypes.Hash
	copy(challengeHash[:], body[:32])
	copy(applicationHash[:], body[32:64])

	if !d.backend.CheckPresence() {
		return statusResponse(nil, SWConditionsNotSatisfied)
	}

	handle, pub, err := d.backend.Enroll(applicationHash)
	if err != nil {
		d.logger.Warn("apdu register enroll failed", "error", err)
		return statusResponse(nil, SWConditionsNotSatisfied)
	}
	if len(handle) > u2ftypes.MaxHandleSize {
		d.logger.Error("apdu register handle exceeds max size", "len", len(handle))
		return statusResponse(nil, SWWrongData)
	}

	signer := d.backend.AttestationSigner()
	cert := signer.Certificate()

	preimage := make([]byte, 0, 1+u2ftypes.HashSize*2+len(handle)+u2ftypes.PublicKeySize)
	preimage = append(preimage, authHeaderReserved)
	preimage = append(preimage, applicationHash[:]...)
	preimage = append(preimage, challengeHash[:]...)
	preimage = append(preimage, handle...)
	preimage = append(preimage, pub[:]...)

	sig, err := signer.Sign(d.hasher.Sum256(preimage))
	if err != nil {
		d.logger.Error("apdu register attestation sign failed", "error", err)
		return statusResponse(nil, SWConditionsNotSatisfied)
	}

	resp := make([]byte, 0, 1+u2ftypes.PublicKeySize+1+len(handle)+len(cert)+len(sig))
	resp = append(resp, registerReservedByte)
	resp = append(resp, pub[:]...)
	resp = append(resp, byte(len(handle)))
	resp = append(resp, handle...)
	resp = append(resp, cert...)
	resp = append(resp, sig...)

	return statusResponse(resp, SWNoError)
}
