package apdu

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-u2f/authenticator/pkg/backend"
	u2fcrypto "github.com/go-u2f/authenticator/pkg/crypto"
	"github.com/go-u2f/authenticator/pkg/u2ftypes"
)

// fakeRecord and fakeBackend give the dispatcher tests a deterministic,
// in-memory credential store so counter and cross-application behavior can
// be asserted precisely, without pulling in sqlite.
type fakeRecord struct {
	priv    u2ftypes.PrivateKey
	counter uint32
}

type fakeBackend struct {
	present bool
	records map[string]*fakeRecord
}

func newFakeBackend(present bool) *fakeBackend {
	return &fakeBackend{present: present, records: map[string]*fakeRecord{}}
}

func recordKey(appHash u2ftypes.Hash, handle u2ftypes.Handle) string {
	return string(appHash[:]) + "|" + string(handle)
}

func (f *fakeBackend) CheckPresence() bool { return f.present }

func (f *fakeBackend) Enroll(appHash u2ftypes.Hash) (u2ftypes.Handle, u2ftypes.PublicKey, error) {
	pub, priv, err := u2fcrypto.GenerateKeyPair()
	if err != nil {
		return nil, u2ftypes.PublicKey{}, err
	}
	handle := u2ftypes.Handle(fmt.Sprintf("handle-%d", len(f.records)))
	f.records[recordKey(appHash, handle)] = &fakeRecord{priv: priv}
	return handle, pub, nil
}

func (f *fakeBackend) Authenticate(appHash u2ftypes.Hash, handle u2ftypes.Handle, checkPresence bool) (u2fcrypto.Signer, uint32, bool, error) {
	rec, ok := f.records[recordKey(appHash, handle)]
	if !ok {
		return nil, 0, false, backend.ErrUnknownHandle
	}

	present := false
	if checkPresence {
		present = f.present
	}

	counter := rec.counter
	rec.counter++
	return u2fcrypto.KeyPair{Private: rec.priv}, counter, present, nil
}

func (f *fakeBackend) AttestationSigner() u2fcrypto.Signer { return u2fcrypto.AttestationSigner() }
func (f *fakeBackend) SupportsWink() bool                  { return false }
func (f *fakeBackend) Wink()                               {}

func extendedRequest(ins Instruction, p1, p2 byte, body []byte) []byte {
	req := []byte{0x00, byte(ins), p1, p2, 0x00, byte(len(body) >> 8), byte(len(body))}
	return append(req, body...)
}

func fillHash(b byte) u2ftypes.Hash {
	var h u2ftypes.Hash
	for i := range h {
		h[i] = b
	}
	return h
}

func TestVersion(t *testing.T) {
	d := NewDispatcher(newFakeBackend(true))
	resp := d.HandleAPDU([]byte{0x00, byte(InsVersion), 0x00, 0x00})
	require.Len(t, resp, len(versionString)+2)
	assert.Equal(t, versionString, string(resp[:len(versionString)]))
	assert.Equal(t, []byte{0x90, 0x00}, resp[len(versionString):])
}

func TestHandleAPDU_UnsupportedClass(t *testing.T) {
	d := NewDispatcher(newFakeBackend(true))
	resp := d.HandleAPDU([]byte{0x01, byte(InsVersion), 0x00, 0x00})
	assert.Equal(t, statusResponse(nil, SWClaNotSupported), resp)
}

func TestHandleAPDU_UnsupportedInstruction(t *testing.T) {
	d := NewDispatcher(newFakeBackend(true))
	resp := d.HandleAPDU([]byte{0x00, 0x77, 0x00, 0x00})
	assert.Equal(t, statusResponse(nil, SWInsNotSupported), resp)
}

func doRegister(t *testing.T, d *Dispatcher, challenge, appHash u2ftypes.Hash) (u2ftypes.PublicKey, u2ftypes.Handle) {
	body := append(append([]byte{}, challenge[:]...), appHash[:]...)
	resp := d.HandleAPDU(extendedRequest(InsRegister, 0, 0, body))
	require.Equal(t, []byte{0x90, 0x00}, resp[len(resp)-2:])

	rb := resp[:len(resp)-2]
	require.Equal(t, byte(registerReservedByte), rb[0])

	var pub u2ftypes.PublicKey
	copy(pub[:], rb[1:1+u2ftypes.PublicKeySize])

	handleLen := int(rb[1+u2ftypes.PublicKeySize])
	handleStart := 1 + u2ftypes.PublicKeySize + 1
	handle := u2ftypes.Handle(rb[handleStart : handleStart+handleLen])

	// The certificate and signature are both variable-length DER values
	// with no length prefix between them; asn1.Unmarshal into a RawValue
	// parses exactly the certificate's bytes and hands back the rest.
	certAndSig := rb[handleStart+handleLen:]
	var certRaw asn1.RawValue
	sig, err := asn1.Unmarshal(certAndSig, &certRaw)
	require.NoError(t, err)
	cert := certAndSig[:len(certAndSig)-len(sig)]

	preimage := make([]byte, 0, 1+64+len(handle)+u2ftypes.PublicKeySize)
	preimage = append(preimage, authHeaderReserved)
	preimage = append(preimage, appHash[:]...)
	preimage = append(preimage, challenge[:]...)
	preimage = append(preimage, handle...)
	preimage = append(preimage, pub[:]...)
	digest := sha256.Sum256(preimage)

	parsedCert, err := x509.ParseCertificate(cert)
	require.NoError(t, err)
	pubKey, ok := parsedCert.PublicKey.(*ecdsa.PublicKey)
	require.True(t, ok)
	assert.True(t, ecdsa.VerifyASN1(pubKey, digest[:], sig))

	return pub, handle
}

func TestRegisterThenAuthenticate(t *testing.T) {
	fb := newFakeBackend(true)
	d := NewDispatcher(fb)

	appA := fillHash(0xAA)
	challengeReg := fillHash(0xBB)

	pub, handle := doRegister(t, d, challengeReg, appA)

	challengeAuth := fillHash(0xCC)
	authBody := append(append([]byte{}, challengeAuth[:]...), appA[:]...)
	authBody = append(authBody, byte(len(handle)))
	authBody = append(authBody, handle...)

	resp := d.HandleAPDU(extendedRequest(InsAuthenticate, byte(SignRequirePresence), 0, authBody))
	require.Equal(t, []byte{0x90, 0x00}, resp[len(resp)-2:])

	rb := resp[:len(resp)-2]
	presenceByte := rb[0]
	counter := binary.BigEndian.Uint32(rb[1:5])
	sig := rb[5:]

	assert.Equal(t, byte(1), presenceByte)
	assert.Equal(t, uint32(0), counter)

	header := rb[:5]
	digestInput := append(append([]byte{}, appA[:]...), header...)
	digestInput = append(digestInput, challengeAuth[:]...)
	digest := sha256.Sum256(digestInput)

	x, y := elliptic.Unmarshal(elliptic.P256(), pub[:])
	require.NotNil(t, x)
	pubKey := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	assert.True(t, ecdsa.VerifyASN1(pubKey, digest[:], sig))
}

func TestAuthenticate_CheckOnly(t *testing.T) {
	fb := newFakeBackend(true)
	d := NewDispatcher(fb)

	appA := fillHash(0xAA)
	_, handle := doRegister(t, d, fillHash(0xBB), appA)

	challengeAuth := fillHash(0xCC)
	body := append(append([]byte{}, challengeAuth[:]...), appA[:]...)
	body = append(body, byte(len(handle)))
	body = append(body, handle...)

	resp := d.HandleAPDU(extendedRequest(InsAuthenticate, byte(SignCheckOnly), 0, body))
	assert.Equal(t, statusResponse(nil, SWConditionsNotSatisfied), resp)
}

func TestAuthenticate_CrossApplicationRejected(t *testing.T) {
	fb := newFakeBackend(true)
	d := NewDispatcher(fb)

	appA := fillHash(0xAA)
	appB := fillHash(0xDD)
	_, handle := doRegister(t, d, fillHash(0xBB), appA)

	challengeAuth := fillHash(0xCC)
	body := append(append([]byte{}, challengeAuth[:]...), appB[:]...)
	body = append(body, byte(len(handle)))
	body = append(body, handle...)

	resp := d.HandleAPDU(extendedRequest(InsAuthenticate, byte(SignAlways), 0, body))
	assert.Equal(t, statusResponse(nil, SWWrongData), resp)
}

func TestAuthenticate_CounterMonotonic(t *testing.T) {
	fb := newFakeBackend(true)
	d := NewDispatcher(fb)

	appA := fillHash(0xAA)
	_, handle := doRegister(t, d, fillHash(0xBB), appA)

	challengeAuth := fillHash(0xCC)
	body := append(append([]byte{}, challengeAuth[:]...), appA[:]...)
	body = append(body, byte(len(handle)))
	body = append(body, handle...)
	req := extendedRequest(InsAuthenticate, byte(SignAlways), 0, body)

	var prev uint32
	for i := 0; i < 5; i++ {
		resp := d.HandleAPDU(req)
		require.Equal(t, []byte{0x90, 0x00}, resp[len(resp)-2:])
		counter := binary.BigEndian.Uint32(resp[1:5])
		if i > 0 {
			assert.Greater(t, counter, prev)
		}
		prev = counter
	}
}

func TestAuthenticate_RequirePresenceWithoutPresence(t *testing.T) {
	fb := newFakeBackend(true)
	d := NewDispatcher(fb)

	appA := fillHash(0xAA)
	_, handle := doRegister(t, d, fillHash(0xBB), appA)

	fb.present = false

	challengeAuth := fillHash(0xCC)
	body := append(append([]byte{}, challengeAuth[:]...), appA[:]...)
	body = append(body, byte(len(handle)))
	body = append(body, handle...)

	resp := d.HandleAPDU(extendedRequest(InsAuthenticate, byte(SignRequirePresence), 0, body))
	assert.Equal(t, statusResponse(nil, SWConditionsNotSatisfied), resp)
}

func TestAuthenticate_BadSignCondition(t *testing.T) {
	fb := newFakeBackend(true)
	d := NewDispatcher(fb)

	resp := d.HandleAPDU(extendedRequest(InsAuthenticate, 0x42, 0, make([]byte, 65)))
	assert.Equal(t, statusResponse(nil, SWWrongData), resp)
}

func TestRegister_PresenceRequired(t *testing.T) {
	fb := newFakeBackend(false)
	d := NewDispatcher(fb)

	challengeReg := fillHash(0xBB)
	appHash := fillHash(0xAA)
	body := append(append([]byte{}, challengeReg[:]...), appHash[:]...)
	resp := d.HandleAPDU(extendedRequest(InsRegister, 0, 0, body))
	assert.Equal(t, statusResponse(nil, SWConditionsNotSatisfied), resp)
}
