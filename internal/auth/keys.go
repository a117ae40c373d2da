package auth

import (
	"crypto/ed25519"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// KeyLoadError reports PEM input that could not be turned into an Ed25519 key.
// It is fatal at startup.
type KeyLoadError struct {
	Kind string
	Err  error
}

func (e *KeyLoadError) Error() string {
	return fmt.Sprintf("load %s key: %v", e.Kind, e.Err)
}

func (e *KeyLoadError) Unwrap() error { return e.Err }

// SigningKey holds the private half of the token keypair.
type SigningKey struct {
	key ed25519.PrivateKey
}

// VerifyingKey holds the public half of the token keypair.
type VerifyingKey struct {
	key ed25519.PublicKey
}

func LoadSigningKey(pemData []byte) (*SigningKey, error) {
	k, err := jwt.ParseEdPrivateKeyFromPEM(pemData)
	if err != nil {
		return nil, &KeyLoadError{Kind: "signing", Err: err}
	}
	priv, ok := k.(ed25519.PrivateKey)
	if !ok {
		return nil, &KeyLoadError{Kind: "signing", Err: jwt.ErrNotEdPrivateKey}
	}
	return &SigningKey{key: priv}, nil
}

func LoadVerifyingKey(pemData []byte) (*VerifyingKey, error) {
	k, err := jwt.ParseEdPublicKeyFromPEM(pemData)
	if err != nil {
		return nil, &KeyLoadError{Kind: "verifying", Err: err}
	}
	pub, ok := k.(ed25519.PublicKey)
	if !ok {
		return nil, &KeyLoadError{Kind: "verifying", Err: jwt.ErrNotEdPublicKey}
	}
	return &VerifyingKey{key: pub}, nil
}

// String keeps the private key out of logs and %v output.
func (k *SigningKey) String() string { return "SigningKey(redacted)" }

func (k *SigningKey) GoString() string { return k.String() }

// Keys is the process-wide keypair. It is built once at startup and only read
// afterwards, so it is shared between goroutines without locking.
type Keys struct {
	Signing   *SigningKey
	Verifying *VerifyingKey
}

func LoadKeys(signingPEM, verifyingPEM []byte) (*Keys, error) {
	sk, err := LoadSigningKey(signingPEM)
	if err != nil {
		return nil, err
	}
	vk, err := LoadVerifyingKey(verifyingPEM)
	if err != nil {
		return nil, err
	}
	return &Keys{Signing: sk, Verifying: vk}, nil
}
