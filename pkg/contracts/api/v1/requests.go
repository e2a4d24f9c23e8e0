// Package api contains the wire contracts of the token verification API.
// Version v1 represents the current stable API version.
package api

// Size limits applied by request validation
const (
	MaxTokenLength = 512
	MaxDateLength  = 32
)

// VerifyRequest is the desktop verification body
type VerifyRequest struct {
	HWID string `json:"hwid" validate:"max=512"`
}

// VerifyTokenRequest is the browser extension verification body
type VerifyTokenRequest struct {
	Token string `json:"token" validate:"max=512"`
}

// RegisterRequest registers a token; Expires defaults server-side when empty
type RegisterRequest struct {
	Token   string `json:"token" validate:"max=512"`
	Expires string `json:"expires,omitempty" validate:"max=32"`
}

// ExtendRequest replaces a token's expiration date
type ExtendRequest struct {
	Token   string `json:"token" validate:"max=512"`
	Expires string `json:"expires" validate:"max=32"`
}

// DeleteRequest removes a token
type DeleteRequest struct {
	Token string `json:"token" validate:"max=512"`
}
