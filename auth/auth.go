package auth

import (
	"context"
	"net/url"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2"
	goauth2 "google.golang.org/api/oauth2/v2"
)

// AuthService captures issuing and authenticating application tokens
// alongside the Google OAuth2 flow.
type AuthService interface {
	AuthCodeURL(state string) string
	AuthenticateJWT(v url.Values, claims jwt.Claims) (jwt.Claims, error)
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUser(ctx context.Context, token *oauth2.Token) (*goauth2.Userinfo, error)
	IssueJWT(claims jwt.Claims) (string, error)
}
