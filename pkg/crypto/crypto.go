// Package crypto wraps the cryptographic primitives the U2F core depends
// on — SHA-256, P-256 ECDSA key generation and signing, and DER signature
// encoding — behind small interfaces. The protocol and backend layers only
// ever see a Signer; how a particular Signer gets its key material (software
// scalar, HSM, secure enclave) is none of their business.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/go-u2f/authenticator/pkg/u2ftypes"
)

var (
	ErrKeyGeneration = errors.New("crypto: key generation failed")
	ErrInvalidKey    = errors.New("crypto: invalid private key")
)

// Hasher computes a SHA-256 digest over the concatenation of its inputs.
// Re-expressed as an interface so callers can swap it in tests; Sum256 is
// the default, stdlib-backed instance.
type Hasher interface {
	Sum256(chunks ...[]byte) u2ftypes.Hash
}

type stdHasher struct{}

// Sum256 is the default Hasher, backed by crypto/sha256.
var Sum256 Hasher = stdHasher{}

func (stdHasher) Sum256(chunks ...[]byte) u2ftypes.Hash {
	h := sha256.New()
	for _, c := range chunks {
		h.Write(c)
	}
	var out u2ftypes.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Signer is an indirection over "sign this hash" and "here is my
// certificate", so a hardware-backed key can be substituted without
// touching the APDU dispatcher.
type Signer interface {
	Sign(hash u2ftypes.Hash) (u2ftypes.Signature, error)
	Certificate() []byte
}

// KeyPair is a software Signer over a bare P-256 scalar. It carries no
// certificate of its own — wrap it, or use AttestationSigner, for
// attestation.
type KeyPair struct {
	Private u2ftypes.PrivateKey
}

func (k KeyPair) ecdsaKey() (*ecdsa.PrivateKey, error) {
	d := new(big.Int).SetBytes(k.Private[:])
	if d.Sign() == 0 {
		return nil, ErrInvalidKey
	}

	priv := new(ecdsa.PrivateKey)
	priv.Curve = elliptic.P256()
	priv.D = d
	priv.PublicKey.X, priv.PublicKey.Y = priv.Curve.ScalarBaseMult(k.Private[:])
	return priv, nil
}

// Sign produces a DER-encoded ECDSA signature over hash.
func (k KeyPair) Sign(hash u2ftypes.Hash) (u2ftypes.Signature, error) {
	priv, err := k.ecdsaKey()
	if err != nil {
		return nil, err
	}
	sig, err := ecdsa.SignASN1(rand.Reader, priv, hash[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: sign: %w", err)
	}
	return u2ftypes.Signature(sig), nil
}

func (k KeyPair) Certificate() []byte { return nil }

// GenerateKeyPair produces a fresh P-256 key, returning the uncompressed
// public point and the raw private scalar.
func GenerateKeyPair() (u2ftypes.PublicKey, u2ftypes.PrivateKey, error) {
	priv, x, y, err := elliptic.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return u2ftypes.PublicKey{}, u2ftypes.PrivateKey{}, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	var pub u2ftypes.PublicKey
	copy(pub[:], elliptic.Marshal(elliptic.P256(), x, y))

	var sk u2ftypes.PrivateKey
	copy(sk[:], priv)

	return pub, sk, nil
}

// AttestationSigner returns a Signer over the bundled batch attestation key,
// paired with its certificate. Every device instance signs REGISTER
// responses with this same key — this is the sample Gnubby Pilot key and
// certificate, embedded for demonstration purposes, per the design note
// that the protocol layer must not assume the key lives forever in memory.
func AttestationSigner() Signer {
	return attestationSigner{}
}

type attestationSigner struct{}

func (attestationSigner) Sign(hash u2ftypes.Hash) (u2ftypes.Signature, error) {
	return KeyPair{Private: attestationPrivateKey}.Sign(hash)
}

func (attestationSigner) Certificate() []byte {
	return append([]byte(nil), attestationCertificate...)
}
