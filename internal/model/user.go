package model

import "time"

// Identity is the authenticated principal a session and its tasks belong to.
// UserID is the token subject issued by the auth service.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Session holds the identity and bearer credentials for the current app run.
type Session struct {
	Identity     Identity `json:"identity"`
	IDToken      string   `json:"id_token"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int32    `json:"expires_in"`
	TokenType    string   `json:"token_type"`
}

// User is the profile side record keyed by identity id.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Age       *int      `json:"age,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
