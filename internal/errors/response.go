package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrorResponse is the JSON body of every failed desktop or admin request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`

	status int
}

// Render implements the render.Renderer interface for chi/render
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

// StatusCode returns the HTTP status the response is sent with
func (e *ErrorResponse) StatusCode() int {
	return e.status
}

// NewErrorResponse converts any error into a response. Errors outside the
// taxonomy become a generic 500 so internal details never reach the client.
func NewErrorResponse(err error) *ErrorResponse {
	if e, ok := As(err); ok {
		return &ErrorResponse{
			Message: e.Message,
			Code:    e.Code,
			status:  e.HTTPStatus(),
		}
	}
	return &ErrorResponse{
		Message: "Internal server error",
		Code:    CodeInternal,
		status:  http.StatusInternalServerError,
	}
}

// WriteError writes err as a JSON error response
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	_ = render.Render(w, r, NewErrorResponse(err))
}
