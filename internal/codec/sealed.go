package codec

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// SealedCredentialTag marks version 2 credential tokens.
const SealedCredentialTag = "cgpt2_"

// SealedCredentialCodec seals credentials with XChaCha20-Poly1305 under a
// managed key. It still reads legacy cgpt_ tokens so organizations saved
// before the key was configured keep resolving until an admin re-saves them.
type SealedCredentialCodec struct {
	key    []byte
	legacy CredentialCodec
}

func NewSealedCredentialCodec(key []byte) (*SealedCredentialCodec, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("credential key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &SealedCredentialCodec{key: k}, nil
}

// Encode panics only if the system random source fails.
func (c *SealedCredentialCodec) Encode(plaintext string) string {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		panic(fmt.Sprintf("init xchacha20poly1305 failed: %v", err))
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		panic(fmt.Sprintf("read nonce failed: %v", err))
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), []byte(SealedCredentialTag))
	return SealedCredentialTag + base64.RawURLEncoding.EncodeToString(sealed)
}

func (c *SealedCredentialCodec) Decode(token string) (string, error) {
	if !strings.HasPrefix(token, SealedCredentialTag) {
		return c.legacy.Decode(token)
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(token, SealedCredentialTag))
	if err != nil {
		return "", ErrDecode
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", ErrDecode
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", ErrDecode
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(SealedCredentialTag))
	if err != nil {
		return "", ErrDecode
	}
	return string(plain), nil
}
