package auth

import (
	"fmt"
	"net/url"

	"github.com/golang-jwt/jwt/v4"
)

// AuthenticateJWT decodes jwt claims from the provided query params.
// If no token is set in the params, AuthenticateJWT returns ErrNotValid.
// Please note that the consuming party needs to pass claims as a pointer
// so that it can be hydrated by ParseWithClaims.
func (s *Service) AuthenticateJWT(v url.Values, claims jwt.Claims) (jwt.Claims, error) {
	reqToken := v.Get("jwt")
	if reqToken == "" {
		return nil, fmt.Errorf("no jwt param set: %w", ErrNotValid)
	}

	token, err := s.parser.ParseWithClaims(reqToken, claims, func(token *jwt.Token) (any, error) {
		return s.key, nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnexpected, err)
	}

	return token.Claims, nil
}

// IssueJWT signs claims into a compact JWT with the service's HMAC key.
// The token authenticates with AuthenticateJWT until the claims expire.
func (s *Service) IssueJWT(claims jwt.Claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnexpected, err)
	}

	return token, nil
}
