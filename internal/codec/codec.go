// Package codec obscures stored credentials and message text.
//
// The default codecs are a reversible encoding, not encryption: anyone with
// read access to the store can recover the plaintext. SealedCredentialCodec is
// the opt-in authenticated alternative and writes a different token format.
package codec

import (
	"encoding/base64"
	"errors"
	"strings"
)

const (
	CredentialTag = "cgpt_"
	MessageTag    = "msg_"
)

var ErrDecode = errors.New("malformed codec token")

// Codec turns plaintext into a tagged token and back.
type Codec interface {
	Encode(plaintext string) string
	Decode(token string) (string, error)
}

// CredentialCodec encodes organization credentials. Decoding a token without
// the credential tag is an error.
type CredentialCodec struct{}

func NewCredentialCodec() *CredentialCodec {
	return &CredentialCodec{}
}

func (CredentialCodec) Encode(plaintext string) string {
	return CredentialTag + base64.StdEncoding.EncodeToString([]byte(plaintext))
}

func (CredentialCodec) Decode(token string) (string, error) {
	if !strings.HasPrefix(token, CredentialTag) {
		return "", ErrDecode
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(token, CredentialTag))
	if err != nil {
		return "", ErrDecode
	}
	return string(raw), nil
}

// MessageCodec encodes conversation text. Untagged or undecodable input is
// legacy plaintext and comes back unchanged, so Decode never fails.
type MessageCodec struct{}

func NewMessageCodec() *MessageCodec {
	return &MessageCodec{}
}

func (MessageCodec) Encode(plaintext string) string {
	return MessageTag + base64.StdEncoding.EncodeToString([]byte(plaintext))
}

func (MessageCodec) Decode(token string) (string, error) {
	if !strings.HasPrefix(token, MessageTag) {
		return token, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(token, MessageTag))
	if err != nil {
		return token, nil
	}
	return string(raw), nil
}
