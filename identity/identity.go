// Package identity verifies the externally-issued JWT a client presents on
// its "auth" handshake message and extracts the caller's player id. Issuing
// tokens, sessions, or accounts is out of scope — this package only
// verifies what another service already signed.
package identity

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates bearer tokens against a JWKS endpoint.
type Verifier struct {
	jwksURL        string
	expectedIssuer string
	jwks           keyfunc.Keyfunc
}

// NewVerifier builds a Verifier for the given JWKS URL and expected issuer.
// If issuer is empty, it is derived from jwksURL's scheme and host.
func NewVerifier(jwksURL, issuer string) (*Verifier, error) {
	if jwksURL == "" {
		return nil, fmt.Errorf("identity: jwks url is empty")
	}
	if issuer == "" {
		u, err := url.Parse(jwksURL)
		if err != nil {
			return nil, fmt.Errorf("identity: invalid jwks url: %w", err)
		}
		issuer = u.Scheme + "://" + u.Host
	}

	jwks, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("identity: failed to fetch jwks: %w", err)
	}

	return &Verifier{jwksURL: jwksURL, expectedIssuer: issuer, jwks: jwks}, nil
}

// Verify parses and validates tokenString, returning the player id from the
// "sub" (or "id") claim.
func (v *Verifier) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc, jwt.WithIssuer(v.expectedIssuer))
	if err != nil {
		return "", fmt.Errorf("identity: token validation failed: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("identity: invalid token claims")
	}

	playerID := stringClaim(claims, "sub")
	if playerID == "" {
		playerID = stringClaim(claims, "id")
	}
	if playerID == "" {
		return "", fmt.Errorf("identity: token has no sub or id claim")
	}
	return playerID, nil
}

// DisplayNameFromClaims returns the first word of the token's "name" claim,
// falling back to the player id if absent.
func DisplayNameFromClaims(tokenString, fallback string) string {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return fallback
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fallback
	}
	name := stringClaim(claims, "name")
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fallback
	}
	if parts := strings.Fields(trimmed); len(parts) > 0 {
		return parts[0]
	}
	return fallback
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
