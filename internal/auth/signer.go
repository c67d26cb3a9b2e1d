package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidSecretEncoding is returned when the API secret is not valid Base64
var ErrInvalidSecretEncoding = errors.New("api secret is not valid base64")

// Signer handles HMAC-SHA512 signing for private exchange endpoints
type Signer struct {
	apiKey string
	secret []byte
	nonces *NonceSource
}

// SignedRequest is the material for one authenticated call
type SignedRequest struct {
	URIPath   string
	Nonce     string
	Body      string
	Signature string
}

// NewSigner decodes the Base64 secret and creates a signer with its own nonce stream
func NewSigner(apiKey, secretB64 string) (*Signer, error) {
	secret, err := decodeSecret(secretB64)
	if err != nil {
		return nil, err
	}

	return &Signer{
		apiKey: apiKey,
		secret: secret,
		nonces: NewNonceSource(),
	}, nil
}

// APIKey returns the API key
func (s *Signer) APIKey() string {
	return s.apiKey
}

// Nonces returns the signer's nonce source
func (s *Signer) Nonces() *NonceSource {
	return s.nonces
}

// SignRequest resolves the nonce, encodes the payload and signs it.
// A non-empty nonceOverride is used as is.
func (s *Signer) SignRequest(uriPath, nonceOverride string, params Params) *SignedRequest {
	nonce := s.nonces.Resolve(nonceOverride)
	body := EncodePayload(nonce, params)

	return &SignedRequest{
		URIPath:   uriPath,
		Nonce:     nonce,
		Body:      body,
		Signature: EncodeSignature(mac(s.secret, uriPath, nonce, body)),
	}
}

// ValidateSignature verifies a Base64 signature for the given request parts
func (s *Signer) ValidateSignature(uriPath, nonce, body, signature string) bool {
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(mac(s.secret, uriPath, nonce, body), got)
}

// Sign computes HMAC-SHA512(secret, uriPath ++ SHA256(nonce ++ encodedBody))
// with the Base64-decoded secret as key.
func Sign(uriPath, nonce, encodedBody, secretB64 string) ([]byte, error) {
	secret, err := decodeSecret(secretB64)
	if err != nil {
		return nil, err
	}
	return mac(secret, uriPath, nonce, encodedBody), nil
}

// EncodeSignature returns the standard padded Base64 form of a MAC
func EncodeSignature(mac []byte) string {
	return base64.StdEncoding.EncodeToString(mac)
}

func mac(secret []byte, uriPath, nonce, encodedBody string) []byte {
	digest := sha256.Sum256([]byte(nonce + encodedBody))

	input := make([]byte, 0, len(uriPath)+len(digest))
	input = append(input, uriPath...)
	input = append(input, digest[:]...)

	h := hmac.New(sha512.New, secret)
	h.Write(input)
	return h.Sum(nil)
}

// decodeSecret keeps the decoder's position detail but never the input itself
func decodeSecret(secretB64 string) ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(secretB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecretEncoding, err)
	}
	return secret, nil
}
