package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jaekwang-park/task-sync/internal/auth"
	"github.com/jaekwang-park/task-sync/internal/service"
)

const maxAuthBodySize = 1 << 20 // 1 MB

// AuthHandler exposes the session lifecycle over HTTP.
type AuthHandler struct {
	sessions *service.SessionProvider
}

func NewAuthHandler(sessions *service.SessionProvider) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// ServeHTTP routes /api/v1/auth/* requests.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/auth/")
	path = strings.TrimRight(path, "/")

	switch path {
	case "signup":
		h.requirePost(w, r, h.handleSignUp)
	case "signin":
		h.requirePost(w, r, h.handleSignIn)
	case "signout":
		h.requirePost(w, r, h.handleSignOut)
	case "session":
		h.handleSessionStream(w, r)
	default:
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
	}
}

func (h *AuthHandler) requirePost(w http.ResponseWriter, r *http.Request, handler func(http.ResponseWriter, *http.Request)) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthBodySize)
	handler(w, r)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	identity, err := h.sessions.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, identity)
}

func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	sess, err := h.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, sess)
}

func (h *AuthHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	// Always succeeds: the local session is gone even if the backend
	// revocation round-trip fails.
	h.sessions.SignOut(r.Context())
	WriteJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

// handleSessionStream pushes the identity of every session-state change
// as a server-sent event. The first event is the current state; a null
// payload means signed out.
func (h *AuthHandler) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	rc, ok := prepareSSE(w)
	if !ok {
		return
	}

	for identity := range h.sessions.Observe(r.Context()) {
		if err := writeSSE(w, rc, identity); err != nil {
			return
		}
	}
}

// handleAuthError maps classified auth failures and service errors to
// HTTP responses. Messages are fixed per error class so backend error
// text never reaches a client.
func handleAuthError(w http.ResponseWriter, err error) {
	if info, ok := auth.LookupError(err); ok {
		slog.Error("auth error", "code", info.Code, "detail", err.Error())
		WriteError(w, info.Status, info.Code, authErrorMessage(info.Code))
		return
	}

	if errors.Is(err, service.ErrInvalidInput) {
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	slog.Error("auth internal error", "error", err.Error())
	WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// authErrorMessage returns the user-facing guidance for each error class.
func authErrorMessage(code string) string {
	messages := map[string]string{
		"NETWORK_UNAVAILABLE":   "could not reach the sign-in service, check your connection and try again",
		"INVALID_CREDENTIAL":    "incorrect email or password",
		"ACCOUNT_CONFLICT":      "an account with this email already exists",
		"USER_NOT_FOUND":        "no account found for this email",
		"MALFORMED_CREDENTIALS": "email or password does not meet requirements",
		"TOO_MANY_REQUESTS":     "too many attempts, please try again later",
	}
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "an error occurred"
}
