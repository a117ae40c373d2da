package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nikhilbhutani/chatserver/internal/models"
)

const (
	TokenDuration = 7 * 24 * time.Hour
	TokenIssuer   = "chat_server"
	TokenAudience = "chat_web"
)

// Claims is the token payload: the user identity under "custom" plus the
// registered iss/aud/iat/nbf/exp claims.
type Claims struct {
	Custom models.User `json:"custom"`
	jwt.RegisteredClaims
}

// IdentityToClaims builds the claims for u issued at issuedAt. The password
// hash is always cleared here, whatever the caller passed in.
func IdentityToClaims(u models.User, issuedAt time.Time) Claims {
	u.PasswordHash = nil
	return Claims{
		Custom: u,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenDuration)),
		},
	}
}

// SignError wraps a failure of the signing primitive. It is not caused by user
// input.
type SignError struct {
	Err error
}

func (e *SignError) Error() string { return fmt.Sprintf("sign token: %v", e.Err) }

func (e *SignError) Unwrap() error { return e.Err }

type TokenReason string

const (
	ReasonBadSignature     TokenReason = "bad signature"
	ReasonIssuerMismatch   TokenReason = "issuer mismatch"
	ReasonAudienceMismatch TokenReason = "audience mismatch"
	ReasonExpired          TokenReason = "token expired"
	ReasonMalformed        TokenReason = "malformed token"
)

// TokenError is returned by Verify. Its message carries only the reason; the
// underlying parser error stays reachable through errors.Unwrap for logs.
type TokenError struct {
	Reason TokenReason
	err    error
}

func (e *TokenError) Error() string { return "verify token failed: " + string(e.Reason) }

func (e *TokenError) Unwrap() error { return e.err }

type Issuer struct {
	key *SigningKey
	now func() time.Time
}

func NewIssuer(key *SigningKey) *Issuer {
	return &Issuer{key: key, now: time.Now}
}

func (i *Issuer) Sign(u models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, IdentityToClaims(u, i.now()))
	s, err := token.SignedString(i.key.key)
	if err != nil {
		return "", &SignError{Err: err}
	}
	return s, nil
}

type Verifier struct {
	key *VerifyingKey
	now func() time.Time
}

func NewVerifier(key *VerifyingKey) *Verifier {
	return &Verifier{key: key, now: time.Now}
}

func (v *Verifier) Verify(tokenStr string) (*models.User, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (interface{}, error) { return v.key.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, &TokenError{Reason: tokenReason(err), err: err}
	}
	u := claims.Custom
	u.PasswordHash = nil
	return &u, nil
}

// tokenReason picks one reason when the parser reports several claim failures
// at once. Signature problems win over claim problems; issuer and audience win
// over time.
func tokenReason(err error) TokenReason {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ReasonMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonBadSignature
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ReasonIssuerMismatch
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ReasonAudienceMismatch
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return ReasonExpired
	default:
		return ReasonMalformed
	}
}
