package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoKey      = errors.New("jwt: neither secret nor public key configured")
	ErrNoSubject  = errors.New("jwt: token has no subject")
	ErrInvalidKey = errors.New("jwt: invalid public key")
)

// Claims represents the identity provider's access token claims
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Options configures token verification. PublicKeyPEM selects RS256 and
// takes precedence over Secret (HS256).
type Options struct {
	Secret       string
	PublicKeyPEM string
	Issuer       string
	Audience     string
}

// Validator verifies bearer tokens issued by the identity provider.
type Validator struct {
	keyFunc jwt.Keyfunc
	parser  *jwt.Parser
}

func NewValidator(opts Options) (*Validator, error) {
	parserOpts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}

	v := &Validator{}
	switch {
	case strings.TrimSpace(opts.PublicKeyPEM) != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(opts.PublicKeyPEM))
		if err != nil {
			return nil, errors.Join(ErrInvalidKey, err)
		}
		parserOpts = append(parserOpts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
		v.keyFunc = func(*jwt.Token) (interface{}, error) { return key, nil }
	case opts.Secret != "":
		secret := []byte(opts.Secret)
		parserOpts = append(parserOpts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		v.keyFunc = func(*jwt.Token) (interface{}, error) { return secret, nil }
	default:
		return nil, ErrNoKey
	}
	v.parser = jwt.NewParser(parserOpts...)
	return v, nil
}

// Validate validates a JWT token and returns the claims
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &Claims{}, v.keyFunc)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, ErrNoSubject
	}
	return claims, nil
}

// Sign signs claims with HS256.
func Sign(claims Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GenerateToken generates an HS256 token for subject. Used for local
// development and tests; production tokens come from the identity provider.
func GenerateToken(subject string, secret string, duration time.Duration) (string, error) {
	now := time.Now()
	return Sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}, secret)
}
