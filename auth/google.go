package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// AuthCodeURL returns the Google consent page to send the user to.
// State round-trips through the flow for CSRF verification on the callback.
func (s *Service) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange converts the authorization code carried by the OAuth2 callback into a token.
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnexpected, err)
	}

	return token, nil
}

// FetchUser retrieves the Google profile of the user consenting to token.
func (s *Service) FetchUser(ctx context.Context, token *oauth2.Token) (*goauth2.Userinfo, error) {
	service, err := goauth2.NewService(ctx, option.WithTokenSource(s.config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnexpected, err)
	}

	user, err := service.Userinfo.Get().Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnexpected, err)
	}

	return user, nil
}
