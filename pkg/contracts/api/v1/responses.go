package api

// Extension verdict statuses
const (
	ExtensionStatusValid   = "valid"
	ExtensionStatusInvalid = "invalid"
)

// Extension verdict reasons
const (
	ReasonTokenMissing  = "token_missing"
	ReasonTokenNotFound = "token_not_found"
	ReasonTokenExpired  = "token_expired"
	ReasonDateError     = "date_error"
)

// Token listing statuses
const (
	TokenStatusActive  = "active"
	TokenStatusExpired = "expired"
)

// DesktopVerifyResponse is the desktop encoding of a verdict
type DesktopVerifyResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Expires       string `json:"expires,omitempty"`
	DaysRemaining *int   `json:"days_remaining,omitempty"`
	Code          string `json:"code,omitempty"`
}

// ExtensionVerifyResponse is the browser extension encoding of a verdict
type ExtensionVerifyResponse struct {
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Expires string `json:"expires,omitempty"`
}

// RegisterResponse confirms a registration
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Expires string `json:"expires"`
}

// ExtendResponse confirms an extension
type ExtendResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	OldExpires string `json:"old_expires"`
	NewExpires string `json:"new_expires"`
}

// DeleteResponse confirms a deletion
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StatusResponse aggregates the token store
type StatusResponse struct {
	ServerStatus  string `json:"server_status"`
	TotalTokens   int    `json:"total_tokens"`
	ActiveTokens  int    `json:"active_tokens"`
	ExpiredTokens int    `json:"expired_tokens"`
	ExpiringSoon  int    `json:"expiring_soon"`
	ServerTime    string `json:"server_time"`
}

// HealthResponse reports liveness
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// TokenInfo is one masked listing entry
type TokenInfo struct {
	Token         string `json:"token"`
	Expires       string `json:"expires"`
	Status        string `json:"status"`
	DaysRemaining int    `json:"days_remaining"`
}

// TokenListResponse is the masked token listing
type TokenListResponse struct {
	Tokens []TokenInfo `json:"tokens"`
	Count  int         `json:"count"`
}

// ReloadResponse reports a store reload
type ReloadResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}
