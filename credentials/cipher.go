package credentials

import (
	"crypto/rand"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	saltLength  = 16
	nonceLength = 24
	scryptN     = 1 << 15
	scryptR     = 8
	scryptP     = 1
)

// Cipher seals the durable credential file at rest. The key is derived from
// the configured passphrase with scrypt; a fresh salt and nonce are written
// as the file prefix on every seal.
type Cipher struct {
	passphrase []byte
}

func NewCipher(passphrase string) (*Cipher, error) {
	if passphrase == "" {
		return nil, errors.New("[NewCipher] passphrase is required")
	}
	return &Cipher{passphrase: []byte(passphrase)}, nil
}

func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "[Cipher.Seal] rand.Read salt")
	}

	key, err := c.deriveKey(salt)
	if err != nil {
		return nil, err
	}

	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, errors.Wrap(err, "[Cipher.Seal] rand.Read nonce")
	}

	out := make([]byte, 0, saltLength+nonceLength+len(plaintext)+secretbox.Overhead)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plaintext, &nonce, key), nil
}

func (c *Cipher) Open(data []byte) ([]byte, error) {
	if len(data) < saltLength+nonceLength+secretbox.Overhead {
		return nil, errors.New("[Cipher.Open] sealed data too short")
	}

	key, err := c.deriveKey(data[:saltLength])
	if err != nil {
		return nil, err
	}

	var nonce [nonceLength]byte
	copy(nonce[:], data[saltLength:saltLength+nonceLength])

	plaintext, ok := secretbox.Open(nil, data[saltLength+nonceLength:], &nonce, key)
	if !ok {
		return nil, errors.New("[Cipher.Open] authentication failed")
	}
	return plaintext, nil
}

func (c *Cipher) deriveKey(salt []byte) (*[32]byte, error) {
	raw, err := scrypt.Key(c.passphrase, salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, errors.Wrap(err, "[Cipher.deriveKey] scrypt.Key")
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}
