/*
Package passkey brokers WebAuthn ceremonies between a browser and the credential
records a cairn application keeps.

A ceremony runs in two legs. The begin leg mints a challenge and responds with the
options the browser feeds to navigator.credentials; the finish leg proves the
authenticator's answer against that challenge. Service runs the legs, Handler wires
them to HTTP, and the challenge rides the caller's session in between, so the finish
leg only ever answers the exchange this client started.

All cryptographic verification belongs to github.com/go-webauthn/webauthn; this
package owns finding users, persisting credentials and keeping the session honest,
including cycling the session ID the moment a login verifies.
*/

package passkey
