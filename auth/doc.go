/*
Package auth authenticates API callers once a browser login has happened.

JWT

HMAC-signed JWTs act as application tokens for first-party API calls. Service issues one
after a successful login ceremony and authenticates it on the requests that follow.

Google

Google sign-in covers internal tooling that fronts an app with its own OAuth2 flow.
Service hands out the consent URL, exchanges the authorization code and fetches the
user's Google profile for matching against application users.
*/

package auth
