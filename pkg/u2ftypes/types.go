// Package u2ftypes holds the fixed-size wire types shared by the APDU
// dispatcher, the U2FHID transport, and the credential backends.
package u2ftypes

const (
	HashSize         = 32
	PrivateKeySize   = 32
	PublicKeySize    = 65
	MaxSignatureSize = 73
	MaxHandleSize    = 255
)

// Hash is a SHA-256 digest.
type Hash [HashSize]byte

// PrivateKey is a secp256r1 scalar.
type PrivateKey [PrivateKeySize]byte

// PublicKey is an uncompressed P-256 point, 0x04 prefix included.
type PublicKey [PublicKeySize]byte

// Handle is an opaque credential identifier, at most MaxHandleSize bytes.
type Handle []byte

// Signature is a DER-encoded ECDSA signature, at most MaxSignatureSize bytes.
type Signature []byte
