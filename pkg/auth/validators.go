package auth

// RegisterPayload represents the registration request body.
type RegisterPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,min=3,max=50"`
	Email    string `json:"email" mod:"trim" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// LoginPayload represents the login request body. Username also accepts an
// email address.
type LoginPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

// MeResponse represents the current user response.
type MeResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// SessionResponse is returned on login and registration. The token is also
// set as the session cookie; API clients can send it as a bearer token.
type SessionResponse struct {
	User  MeResponse `json:"user"`
	Token string     `json:"token"`
}
