package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
)

// Service is an implementation of the AuthService interface defined in this package.
type Service struct {
	config *oauth2.Config
	key    []byte
	parser *jwt.Parser
}

// A ServiceOpt configures optional Service behavior.
type ServiceOpt func(*Service)

// WithRedirectURL sets the URL the Google OAuth2 flow returns to.
// Required before calling AuthCodeURL or Exchange.
func WithRedirectURL(u string) ServiceOpt {
	return func(s *Service) { s.config.RedirectURL = u }
}

// NewService constructs a *Service from the required configuration values.
// All three must be set.
func NewService(jwtKey, googleClient, googleSecret string, opts ...ServiceOpt) (*Service, error) {
	if jwtKey == "" || googleClient == "" || googleSecret == "" {
		return nil, fmt.Errorf(`%w: config cannot be ""`, ErrNotValid)
	}

	s := &Service{
		config: &oauth2.Config{
			ClientID:     googleClient,
			ClientSecret: googleSecret,
			Scopes:       []string{goauth2.UserinfoEmailScope},
			Endpoint:     google.Endpoint,
		},
		key:    []byte(jwtKey),
		parser: &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}
