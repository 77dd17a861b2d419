package passkey

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cairnhq/cairn"
	"github.com/cairnhq/cairn/http/fail"
	"github.com/cairnhq/cairn/http/keyring"
	"github.com/cairnhq/cairn/http/req"
	"github.com/cairnhq/cairn/http/session"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// keys stashing in-flight ceremonies on the HTTP session.
const (
	registerStashKey = "cairn-passkey-register"
	loginStashKey    = "cairn-passkey-login"
)

// A ceremony is the server half of an in-flight exchange, stashed on the
// caller's HTTP session between the begin and finish legs.
type ceremony struct {
	Username string               `json:"username"`
	Session  webauthn.SessionData `json:"session"`
}

// A Handler wires a Service's ceremonies to HTTP.
//
// Handler expects middleware.InjectSession upstream; the session associated
// with the request carries the challenge between legs. Every failed request
// goes through the *fail.Responder, which negotiates how the failure renders.
type Handler struct {
	parser     *req.Parser
	responder  *fail.Responder
	service    *Service
	sessionKey keyring.Keyable
}

// NewHandler constructs a *Handler around service.
//
// sessionKey is the context key the session middleware stashes
// the request's session under.
func NewHandler(service *Service, responder *fail.Responder, sessionKey keyring.Keyable) (*Handler, error) {
	if service == nil || responder == nil || sessionKey == nil {
		return nil, fmt.Errorf("%w: a *Service, a *fail.Responder and a session key are all required", cairn.ErrBadConfig)
	}

	return &Handler{
		parser:     req.NewParser(),
		responder:  responder,
		service:    service,
		sessionKey: sessionKey,
	}, nil
}

// BeginRegistration opens a registration ceremony.
//
// The request body names the registrant: {"name": ..., "displayName": ...},
// name required. The response body is the credential creation options JSON
// for navigator.credentials.create.
func (h *Handler) BeginRegistration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name" validate:"required"`
		DisplayName string `json:"displayName"`
	}
	if err := h.parser.ParseBody(r.Body, &body); err != nil {
		h.respondError(w, r, err)
		return
	}

	s, err := h.session(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	options, stash, err := h.service.BeginRegistration(body.Name, body.DisplayName)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := stashCeremony(w, r, s, registerStashKey, ceremony{Username: body.Name, Session: stash}); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, options)
}

// FinishRegistration closes the registration ceremony this session began,
// verifying the attestation the browser answered with.
//
// The body must carry the authenticator's answer whole; on top of what the
// ceremony library enforces, the id, rawId and type fields must be non-empty
// strings, type must be "public-key" and response must be an object.
func (h *Handler) FinishRegistration(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, r, fmt.Errorf("%w: failed reading request body: %s", ErrUnexpected, err))
		return
	}

	if err := h.validateAnswer(b); err != nil {
		h.respondError(w, r, err)
		return
	}

	s, err := h.session(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	c, err := unstashCeremony(s, registerStashKey)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	parsed, err := protocol.ParseCredentialCreationResponseBody(bytes.NewReader(b))
	if err != nil {
		h.respondError(w, r, fmt.Errorf("%w: %s", ErrNotValid, err))
		return
	}

	_, finishErr := h.service.FinishRegistration(c.Username, c.Session, parsed)

	// the challenge is single-use; drop it however verification went
	if err := s.Unset(w, r, registerStashKey); err != nil {
		h.respondError(w, r, fmt.Errorf("%w: %s", ErrUnexpected, err))
		return
	}

	if finishErr != nil {
		h.respondError(w, r, finishErr)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// BeginLogin opens a login ceremony.
//
// The request body may name the user: {"name": ...}. An empty name - or no
// body at all - opens a discoverable ceremony instead, where the
// authenticator picks the credential. The response body is the credential
// request options JSON for navigator.credentials.get.
func (h *Handler) BeginLogin(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, r, fmt.Errorf("%w: failed reading request body: %s", ErrUnexpected, err))
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if len(bytes.TrimSpace(b)) > 0 {
		if err := h.parser.ParseBody(bytes.NewReader(b), &body); err != nil {
			h.respondError(w, r, err)
			return
		}
	}

	s, err := h.session(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	options, stash, err := h.service.BeginLogin(body.Name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := stashCeremony(w, r, s, loginStashKey, ceremony{Username: body.Name, Session: stash}); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, options)
}

// FinishLogin closes the login ceremony this session began, verifying the
// assertion the browser answered with.
//
// The body rules match FinishRegistration, plus response.userHandle must be
// a string when present. On a verified assertion the session's ID is cycled
// and the proven user registered current on it, in that order, so the
// authenticated session shares nothing with the anonymous one.
func (h *Handler) FinishLogin(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, r, fmt.Errorf("%w: failed reading request body: %s", ErrUnexpected, err))
		return
	}

	if err := h.validateAnswer(b); err != nil {
		h.respondError(w, r, err)
		return
	}

	s, err := h.session(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	c, err := unstashCeremony(s, loginStashKey)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	parsed, err := protocol.ParseCredentialRequestResponseBody(bytes.NewReader(b))
	if err != nil {
		h.respondError(w, r, fmt.Errorf("%w: %s", ErrNotValid, err))
		return
	}

	user, finishErr := h.service.FinishLogin(c.Username, c.Session, parsed)

	// the challenge is single-use; drop it however verification went
	if err := s.Unset(w, r, loginStashKey); err != nil {
		h.respondError(w, r, fmt.Errorf("%w: %s", ErrUnexpected, err))
		return
	}

	if finishErr != nil {
		h.respondError(w, r, finishErr)
		return
	}

	if err := s.RegenerateID(w, r); err != nil {
		h.respondError(w, r, fmt.Errorf("%w: failed cycling session: %s", ErrUnexpected, err))
		return
	}

	if err := s.RegisterUser(w, r, user.ID); err != nil {
		h.respondError(w, r, fmt.Errorf("%w: failed registering user on session: %s", ErrUnexpected, err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

// validateAnswer enforces the field rules on an authenticator's answer
// before the ceremony library sees it: id, rawId and type are required
// strings, type must be "public-key", response must be an object and
// response.userHandle, when present, a string.
func (h *Handler) validateAnswer(b []byte) error {
	var answer struct {
		ID       string          `json:"id" validate:"required"`
		RawID    string          `json:"rawId" validate:"required"`
		Type     string          `json:"type" validate:"required,eq=public-key"`
		Response json.RawMessage `json:"response" validate:"required"`
	}
	if err := h.parser.ParseBody(bytes.NewReader(b), &answer); err != nil {
		return err
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(answer.Response, &resp); err != nil || resp == nil {
		return fmt.Errorf("%w: response must be an object", ErrNotValid)
	}

	if raw, ok := resp["userHandle"]; ok {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '"' {
			return fmt.Errorf("%w: response.userHandle must be a string", ErrNotValid)
		}
	}

	return nil
}

// session pulls the request's session out of its context.
func (h *Handler) session(r *http.Request) (session.CairnSessionable, error) {
	s, ok := r.Context().Value(h.sessionKey).(session.CairnSessionable)
	if !ok {
		return nil, fmt.Errorf("%w: no session on request; is the session middleware mounted?", ErrUnexpected)
	}

	return s, nil
}

// stashCeremony saves c on the session under key.
func stashCeremony(w http.ResponseWriter, r *http.Request, s session.Sessionable, key string, c ceremony) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: failed stashing ceremony: %s", ErrUnexpected, err)
	}

	if err := s.Set(w, r, key, string(b)); err != nil {
		return fmt.Errorf("%w: failed stashing ceremony: %s", ErrUnexpected, err)
	}

	return nil
}

// unstashCeremony retrieves the ceremony stashed under key,
// failing with ErrNoCeremony when this session never began one.
func unstashCeremony(s session.Sessionable, key string) (ceremony, error) {
	raw, ok := s.Get(key).(string)
	if !ok || raw == "" {
		return ceremony{}, fmt.Errorf("%w: begin a new exchange", ErrNoCeremony)
	}

	var c ceremony
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return ceremony{}, fmt.Errorf("%w: failed reading stashed ceremony: %s", ErrUnexpected, err)
	}

	return c, nil
}

// respondError renders err through the *fail.Responder,
// mapping it onto the status codes the ceremony endpoints answer with.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var code int
	switch {
	case errors.Is(err, ErrNotValid), errors.Is(err, cairn.ErrNotValid), errors.Is(err, cairn.ErrBadFormat):
		code = http.StatusBadRequest

	case errors.Is(err, ErrDenied), errors.Is(err, ErrNoCeremony), errors.Is(err, ErrNotFound):
		code = http.StatusUnauthorized

	default:
		code = http.StatusInternalServerError
	}

	h.responder.Handle(w, r, code, err)
}

// respondJSON writes payload as the JSON response body.
func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.responder.Handle(w, r, http.StatusInternalServerError, fmt.Errorf("%w: %s", ErrUnexpected, err))
	}
}
