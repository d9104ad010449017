// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hmac

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// HMACConfig holds the key used to sign opaque pagination cursors.
type HMACConfig struct {
	Secret string `env:"SECRET,notEmpty"`
}

// HMACSigner produces tokens of the form base64url(payload) + "." + base64url(HMAC-SHA256(payloadB64)).
type HMACSigner struct {
	key []byte
}

var (
	ErrMissingKey       = errors.New("missing hmac key")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidSignature = errors.New("invalid signature")
)

func NewHMACSigner(secKey []byte) (*HMACSigner, error) {
	if len(secKey) == 0 {
		return nil, ErrMissingKey
	}
	return &HMACSigner{key: secKey}, nil
}

func (h *HMACSigner) Sign(payload []byte) (string, error) {
	payloadB64 := base64.RawURLEncoding.EncodeToString(payload)
	sigB64 := base64.RawURLEncoding.EncodeToString(h.mac([]byte(payloadB64)))
	return payloadB64 + "." + sigB64, nil
}

func (h *HMACSigner) Verify(token string) ([]byte, error) {
	payloadB64, sigB64, ok := strings.Cut(token, ".")
	if !ok || strings.Contains(sigB64, ".") {
		return nil, ErrInvalidToken
	}
	got, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !hmac.Equal(h.mac([]byte(payloadB64)), got) {
		return nil, ErrInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return payload, nil
}

func (h *HMACSigner) mac(b []byte) []byte {
	m := hmac.New(sha256.New, h.key)
	_, _ = m.Write(b)
	return m.Sum(nil)
}

// SHA512Verifier checks hex encoded HMAC-SHA512 digests, the scheme payment
// gateways use to sign webhook bodies.
type SHA512Verifier struct {
	key []byte
}

func NewSHA512Verifier(key []byte) (*SHA512Verifier, error) {
	if len(key) == 0 {
		return nil, ErrMissingKey
	}
	return &SHA512Verifier{key: key}, nil
}

// Sign returns the lowercase hex digest of body.
func (v *SHA512Verifier) Sign(body []byte) string {
	m := hmac.New(sha512.New, v.key)
	_, _ = m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

func (v *SHA512Verifier) Verify(body []byte, signature string) error {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return ErrInvalidSignature
	}
	m := hmac.New(sha512.New, v.key)
	_, _ = m.Write(body)
	if !hmac.Equal(m.Sum(nil), got) {
		return ErrInvalidSignature
	}
	return nil
}
