package backend

import (
	"time"

	"github.com/go-u2f/authenticator/pkg/crypto"
	"github.com/go-u2f/authenticator/pkg/u2ftypes"
)

// Unsafe is a demonstration-only backend: the handle IS the private key,
// prefixed with the application hash it was issued under, so it carries no
// secret beyond what the relying party already handed back on every
// AUTHENTICATE. Never use outside a demo.
type Unsafe struct {
	now func() time.Time
}

func NewUnsafe() *Unsafe {
	return &Unsafe{now: time.Now}
}

func (u *Unsafe) CheckPresence() bool { return true }

func (u *Unsafe) Enroll(applicationHash u2ftypes.Hash) (u2ftypes.Handle, u2ftypes.PublicKey, error) {
	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, u2ftypes.PublicKey{}, err
	}

	handle := make(u2ftypes.Handle, 0, u2ftypes.HashSize+u2ftypes.PrivateKeySize)
	handle = append(handle, applicationHash[:]...)
	handle = append(handle, priv[:]...)

	return handle, pub, nil
}

func (u *Unsafe) Authenticate(applicationHash u2ftypes.Hash, handle u2ftypes.Handle, checkPresence bool) (crypto.Signer, uint32, bool, error) {
	if len(handle) != u2ftypes.HashSize+u2ftypes.PrivateKeySize {
		return nil, 0, false, ErrUnknownHandle
	}
	if string(handle[:u2ftypes.HashSize]) != string(applicationHash[:]) {
		return nil, 0, false, ErrUnknownHandle
	}

	var priv u2ftypes.PrivateKey
	copy(priv[:], handle[u2ftypes.HashSize:])

	// A monotonic counter with no persistence: the current Unix second.
	// Not cryptographically sound, but stable for the life of one demo
	// process, matching the teacher's treatment of stand-in identifiers.
	counter := uint32(u.now().Unix())

	return crypto.KeyPair{Private: priv}, counter, true, nil
}

func (u *Unsafe) AttestationSigner() crypto.Signer {
	return crypto.AttestationSigner()
}

func (u *Unsafe) SupportsWink() bool { return false }
func (u *Unsafe) Wink()              {}
