// Package backend implements the pluggable credential-backend strategies:
// Unsafe, Encrypted, Database, and Biometric. Each maps an (application
// identity, key handle) pair back to a private key and a monotonic
// counter, and supplies the attestation signer used for REGISTER.
package backend

import (
	"errors"

	"github.com/go-u2f/authenticator/pkg/crypto"
	"github.com/go-u2f/authenticator/pkg/u2ftypes"
)

// ErrUnknownHandle is returned by Authenticate when the (application_hash,
// handle) pair does not resolve to a stored credential.
var ErrUnknownHandle = errors.New("backend: unknown credential handle")

// Backend is the capability contract every credential strategy implements.
type Backend interface {
	// CheckPresence reports whether the user is currently present,
	// triggering any backend-specific presence mechanics (arming the
	// biometric scanner) as a side effect. Non-biometric backends always
	// report true.
	CheckPresence() bool

	// Enroll creates a new credential under applicationHash and returns
	// its handle and public key.
	Enroll(applicationHash u2ftypes.Hash) (u2ftypes.Handle, u2ftypes.PublicKey, error)

	// Authenticate resolves handle under applicationHash to a Signer and
	// the record's auth counter, incrementing it as a side effect.
	// checkPresence requests a presence determination (present is only
	// meaningful when checkPresence is true); ErrUnknownHandle is
	// returned if the pair does not resolve to a credential.
	Authenticate(applicationHash u2ftypes.Hash, handle u2ftypes.Handle, checkPresence bool) (signer crypto.Signer, counter uint32, present bool, err error)

	// AttestationSigner returns the Signer used to sign REGISTER
	// responses, paired with its certificate.
	AttestationSigner() crypto.Signer

	SupportsWink() bool
	Wink()
}
