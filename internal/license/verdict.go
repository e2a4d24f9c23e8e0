package license

import (
	"fmt"
	"net/http"

	apperrors "tokenauth/internal/errors"
	api "tokenauth/pkg/contracts/api/v1"
)

// Outcome is the terminal state of one verification
type Outcome string

const (
	OutcomeValid        Outcome = "valid"
	OutcomeMissingToken Outcome = "missing_token"
	OutcomeNotFound     Outcome = "token_not_found"
	OutcomeInvalidDate  Outcome = "invalid_date"
	OutcomeExpired      Outcome = "token_expired"
)

// Channel names the client surface a verification came through
type Channel string

const (
	ChannelDesktop   Channel = "desktop"
	ChannelExtension Channel = "extension"
)

// Verdict is the result of checking a token against the store
type Verdict struct {
	Outcome       Outcome
	Expires       string
	DaysRemaining int
}

// Valid reports whether the token was accepted
func (v Verdict) Valid() bool {
	return v.Outcome == OutcomeValid
}

// Err returns the typed error for a rejected verdict, nil when valid
func (v Verdict) Err() error {
	switch v.Outcome {
	case OutcomeValid:
		return nil
	case OutcomeMissingToken:
		return apperrors.InputError(apperrors.CodeMissingToken, "No token provided")
	case OutcomeNotFound:
		return apperrors.NotFound(apperrors.CodeTokenNotFound, "Token not found")
	case OutcomeExpired:
		return apperrors.New(apperrors.KindExpired, apperrors.CodeTokenExpired,
			fmt.Sprintf("License expired on %s", v.Expires))
	default:
		return apperrors.New(apperrors.KindIntegrity, apperrors.CodeInvalidDate,
			"Stored expiration date is invalid")
	}
}

// DesktopEncoding renders v for the desktop application along with its HTTP status
func DesktopEncoding(v Verdict) (int, api.DesktopVerifyResponse) {
	if v.Valid() {
		days := v.DaysRemaining
		return http.StatusOK, api.DesktopVerifyResponse{
			Success:       true,
			Message:       "Verification successful",
			Expires:       v.Expires,
			DaysRemaining: &days,
		}
	}

	e, _ := apperrors.As(v.Err())
	resp := api.DesktopVerifyResponse{
		Success: false,
		Message: e.Message,
		Code:    e.Code,
	}
	if v.Outcome == OutcomeExpired {
		resp.Expires = v.Expires
	}
	return e.HTTPStatus(), resp
}

// ExtensionEncoding renders v for the browser extension. It is always sent with 200.
func ExtensionEncoding(v Verdict) api.ExtensionVerifyResponse {
	switch v.Outcome {
	case OutcomeValid:
		return api.ExtensionVerifyResponse{Status: api.ExtensionStatusValid, Expires: v.Expires}
	case OutcomeMissingToken:
		return api.ExtensionVerifyResponse{Status: api.ExtensionStatusInvalid, Reason: api.ReasonTokenMissing}
	case OutcomeNotFound:
		return api.ExtensionVerifyResponse{Status: api.ExtensionStatusInvalid, Reason: api.ReasonTokenNotFound}
	case OutcomeExpired:
		return api.ExtensionVerifyResponse{Status: api.ExtensionStatusInvalid, Reason: api.ReasonTokenExpired}
	default:
		return api.ExtensionVerifyResponse{Status: api.ExtensionStatusInvalid, Reason: api.ReasonDateError}
	}
}
