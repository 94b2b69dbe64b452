package handler_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jaekwang-park/task-sync/internal/auth"
	"github.com/jaekwang-park/task-sync/internal/http/handler"
	"github.com/jaekwang-park/task-sync/internal/model"
	"github.com/jaekwang-park/task-sync/internal/service"
)

// mockAuthClient for handler tests
type mockAuthClient struct {
	signUpFn  func(ctx context.Context, input auth.SignUpInput) (auth.SignUpOutput, error)
	signInFn  func(ctx context.Context, input auth.SignInInput) (auth.AuthOutput, error)
	signOutFn func(ctx context.Context, input auth.SignOutInput) error
}

func (m *mockAuthClient) SignUp(ctx context.Context, input auth.SignUpInput) (auth.SignUpOutput, error) {
	return m.signUpFn(ctx, input)
}
func (m *mockAuthClient) SignIn(ctx context.Context, input auth.SignInInput) (auth.AuthOutput, error) {
	return m.signInFn(ctx, input)
}
func (m *mockAuthClient) SignOut(ctx context.Context, input auth.SignOutInput) error {
	if m.signOutFn != nil {
		return m.signOutFn(ctx, input)
	}
	return nil
}

// mockUserRepo for handler tests
type mockUserRepo struct {
	getOrCreateFn func(ctx context.Context, id, email string) (model.User, error)
	getFn         func(ctx context.Context, id string) (model.User, error)
	saveProfileFn func(ctx context.Context, user model.User) (model.User, error)
}

func (m *mockUserRepo) GetOrCreate(ctx context.Context, id, email string) (model.User, error) {
	if m.getOrCreateFn != nil {
		return m.getOrCreateFn(ctx, id, email)
	}
	return model.User{ID: id, Email: email}, nil
}
func (m *mockUserRepo) Get(ctx context.Context, id string) (model.User, error) {
	return m.getFn(ctx, id)
}
func (m *mockUserRepo) SaveProfile(ctx context.Context, user model.User) (model.User, error) {
	return m.saveProfileFn(ctx, user)
}

// unsignedIDToken builds a structurally valid JWT carrying only a sub claim.
func unsignedIDToken(t *testing.T, sub string) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload, err := json.Marshal(map[string]string{"sub": sub})
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "."
}

func newAuthHandler(client *mockAuthClient, users *mockUserRepo) *handler.AuthHandler {
	if users == nil {
		users = &mockUserRepo{}
	}
	return handler.NewAuthHandler(service.NewSessionProvider(client, users, discardLogger()))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestAuthHandler_SignUp(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		clientErr  error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "success",
			body:       `{"email":"a@x.com","password":"pw123456"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid json",
			body:       `{invalid`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_JSON",
		},
		{
			name:       "missing email",
			body:       `{"password":"pw123456"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "email already registered",
			body:       `{"email":"a@x.com","password":"pw123456"}`,
			clientErr:  fmt.Errorf("%w: a@x.com", auth.ErrAccountConflict),
			wantStatus: http.StatusConflict,
			wantCode:   "ACCOUNT_CONFLICT",
		},
		{
			name:       "auth service unreachable",
			body:       `{"email":"a@x.com","password":"pw123456"}`,
			clientErr:  fmt.Errorf("%w: dial timeout", auth.ErrNetworkUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "NETWORK_UNAVAILABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockAuthClient{
				signUpFn: func(ctx context.Context, input auth.SignUpInput) (auth.SignUpOutput, error) {
					if tt.clientErr != nil {
						return auth.SignUpOutput{}, tt.clientErr
					}
					return auth.SignUpOutput{UserSub: "sub-1"}, nil
				},
			}

			h := newAuthHandler(client, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d (body: %s)", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantCode != "" {
				resp := decodeError(t, w)
				if resp.Error.Code != tt.wantCode {
					t.Errorf("expected code %s, got %s", tt.wantCode, resp.Error.Code)
				}
				if tt.clientErr != nil && strings.Contains(resp.Error.Message, tt.clientErr.Error()) {
					t.Errorf("raw backend error leaked to client: %q", resp.Error.Message)
				}
			}
		})
	}
}

func TestAuthHandler_SignIn(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		clientErr  error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "success",
			body:       `{"email":"a@x.com","password":"pw123456"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong password",
			body:       `{"email":"a@x.com","password":"wrong"}`,
			clientErr:  fmt.Errorf("%w: NotAuthorizedException", auth.ErrInvalidCredential),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_CREDENTIAL",
			wantMsg:    "incorrect email or password",
		},
		{
			name:       "auth service unreachable",
			body:       `{"email":"a@x.com","password":"pw123456"}`,
			clientErr:  fmt.Errorf("%w: dial timeout", auth.ErrNetworkUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "NETWORK_UNAVAILABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockAuthClient{
				signInFn: func(ctx context.Context, input auth.SignInInput) (auth.AuthOutput, error) {
					if tt.clientErr != nil {
						return auth.AuthOutput{}, tt.clientErr
					}
					return auth.AuthOutput{
						IDToken:     unsignedIDToken(t, "sub-1"),
						AccessToken: "access-token",
						ExpiresIn:   3600,
						TokenType:   "Bearer",
					}, nil
				},
			}

			h := newAuthHandler(client, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d (body: %s)", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.wantStatus == http.StatusOK {
				var sess model.Session
				if err := json.NewDecoder(w.Body).Decode(&sess); err != nil {
					t.Fatalf("failed to decode session: %v", err)
				}
				if sess.Identity.UserID != "sub-1" {
					t.Errorf("expected user_id=sub-1, got %q", sess.Identity.UserID)
				}
				return
			}

			resp := decodeError(t, w)
			if resp.Error.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Error.Code)
			}
			if tt.wantMsg != "" && resp.Error.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, resp.Error.Message)
			}
		})
	}
}

func TestAuthHandler_SignOut_AlwaysSucceeds(t *testing.T) {
	client := &mockAuthClient{
		signInFn: func(ctx context.Context, input auth.SignInInput) (auth.AuthOutput, error) {
			return auth.AuthOutput{IDToken: unsignedIDToken(t, "sub-1")}, nil
		},
		signOutFn: func(ctx context.Context, input auth.SignOutInput) error {
			return fmt.Errorf("%w: dial timeout", auth.ErrNetworkUnavailable)
		},
	}

	h := newAuthHandler(client, nil)

	signIn := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin", bytes.NewBufferString(`{"email":"a@x.com","password":"pw123456"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, signIn)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-in failed: %d (%s)", w.Code, w.Body.String())
	}

	// Backend revocation fails, but the session is cleared locally.
	signOut := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signout", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, signOut)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d (body: %s)", w.Code, w.Body.String())
	}
}

func TestAuthHandler_UnknownEndpoint(t *testing.T) {
	h := newAuthHandler(&mockAuthClient{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestAuthHandler_MethodNotAllowed(t *testing.T) {
	h := newAuthHandler(&mockAuthClient{}, nil)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/auth/signup"},
		{http.MethodPost, "/api/v1/auth/session"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestAuthHandler_SessionStream(t *testing.T) {
	client := &mockAuthClient{
		signInFn: func(ctx context.Context, input auth.SignInInput) (auth.AuthOutput, error) {
			return auth.AuthOutput{IDToken: unsignedIDToken(t, "sub-1")}, nil
		},
	}

	sessions := service.NewSessionProvider(client, &mockUserRepo{}, discardLogger())
	h := handler.NewAuthHandler(sessions)

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/auth/session", nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("session stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	nextEvent := func() string {
		t.Helper()
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimPrefix(line, "data: ")
			}
		}
		t.Fatalf("stream ended early: %v", scanner.Err())
		return ""
	}

	// Signed out: the first event is the current (empty) state.
	if got := nextEvent(); got != "null" {
		t.Fatalf("expected null initial event, got %q", got)
	}

	if _, err := sessions.SignIn(context.Background(), "a@x.com", "pw123456"); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	var identity model.Identity
	if err := json.Unmarshal([]byte(nextEvent()), &identity); err != nil {
		t.Fatalf("failed to decode identity event: %v", err)
	}
	if identity.UserID != "sub-1" {
		t.Errorf("expected user_id=sub-1, got %q", identity.UserID)
	}
}
