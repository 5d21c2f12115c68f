package backend

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"time"

	stdcrypto "github.com/go-u2f/authenticator/pkg/crypto"
	"github.com/go-u2f/authenticator/pkg/u2ftypes"
)

const encryptedBackendSalt = "U2F Device Library"

// Encrypted is the stateless backend: no record is ever stored. The handle
// is an AES-256-CBC ciphertext binding the application hash and private
// key together, keyed off a password-derived key, so the device can be
// wiped and reconstituted with nothing but the password.
type Encrypted struct {
	key [32]byte
	now func() time.Time
}

func NewEncrypted(password string) *Encrypted {
	hash := stdcrypto.Sum256.Sum256([]byte(encryptedBackendSalt), []byte(password))
	return &Encrypted{key: hash, now: time.Now}
}

func (e *Encrypted) CheckPresence() bool { return true }

func (e *Encrypted) Enroll(applicationHash u2ftypes.Hash) (u2ftypes.Handle, u2ftypes.PublicKey, error) {
	pub, priv, err := stdcrypto.GenerateKeyPair()
	if err != nil {
		return nil, u2ftypes.PublicKey{}, err
	}

	plaintext := make([]byte, 0, u2ftypes.HashSize+u2ftypes.PrivateKeySize)
	plaintext = append(plaintext, applicationHash[:]...)
	plaintext = append(plaintext, priv[:]...)

	handle, err := e.encrypt(applicationHash, plaintext)
	if err != nil {
		return nil, u2ftypes.PublicKey{}, err
	}

	return handle, pub, nil
}

func (e *Encrypted) Authenticate(applicationHash u2ftypes.Hash, handle u2ftypes.Handle, checkPresence bool) (stdcrypto.Signer, uint32, bool, error) {
	if len(handle) != u2ftypes.HashSize+u2ftypes.PrivateKeySize {
		return nil, 0, false, ErrUnknownHandle
	}

	plaintext, err := e.decrypt(applicationHash, handle)
	if err != nil {
		return nil, 0, false, ErrUnknownHandle
	}
	if string(plaintext[:u2ftypes.HashSize]) != string(applicationHash[:]) {
		return nil, 0, false, ErrUnknownHandle
	}

	var priv u2ftypes.PrivateKey
	copy(priv[:], plaintext[u2ftypes.HashSize:])

	counter := uint32(e.now().Unix())

	return stdcrypto.KeyPair{Private: priv}, counter, true, nil
}

func (e *Encrypted) AttestationSigner() stdcrypto.Signer {
	return stdcrypto.AttestationSigner()
}

func (e *Encrypted) SupportsWink() bool { return false }
func (e *Encrypted) Wink()              {}

// encrypt/decrypt use the application hash as the CBC IV, binding each
// handle to the application it was issued under without an extra field.
func (e *Encrypted) encrypt(applicationHash u2ftypes.Hash, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key[:])
	if err != nil {
		return nil, fmt.Errorf("backend: encrypted handle cipher: %w", err)
	}

	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, applicationHash[:aes.BlockSize]).CryptBlocks(ciphertext, plaintext)
	return ciphertext, nil
}

func (e *Encrypted) decrypt(applicationHash u2ftypes.Hash, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key[:])
	if err != nil {
		return nil, fmt.Errorf("backend: encrypted handle cipher: %w", err)
	}
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrUnknownHandle
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, applicationHash[:aes.BlockSize]).CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}
