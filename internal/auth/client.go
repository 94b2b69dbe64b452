package auth

import "context"

// Client defines the operations this app needs from the external auth service.
type Client interface {
	SignUp(ctx context.Context, input SignUpInput) (SignUpOutput, error)
	SignIn(ctx context.Context, input SignInInput) (AuthOutput, error)
	SignOut(ctx context.Context, input SignOutInput) error
}

// SignUpInput contains the parameters for creating a new account.
type SignUpInput struct {
	Email    string
	Password string
}

// SignUpOutput contains the result of a successful account creation.
type SignUpOutput struct {
	UserSub   string
	Confirmed bool
}

// SignInInput contains the credential pair for signing in.
type SignInInput struct {
	Email    string
	Password string
}

// AuthOutput contains tokens returned after successful authentication.
type AuthOutput struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int32
	TokenType    string
}

// SignOutInput contains the parameters for revoking a session.
type SignOutInput struct {
	AccessToken string
}
