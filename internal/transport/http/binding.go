package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apperrors "tokenauth/internal/errors"
)

// maxBodySize caps request bodies; every body is a couple of short strings
const maxBodySize = 64 << 10

// Binder decodes JSON bodies and checks their struct tags
type Binder struct {
	validate *validator.Validate
}

// NewBinder creates a binder reporting field errors by their JSON names
func NewBinder() *Binder {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Binder{validate: v}
}

// Bind decodes r's body into dst and validates it. An empty body decodes to
// the zero value so required-field checks stay with the service.
func (b *Binder) Bind(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	defer body.Close()

	if err := render.DecodeJSON(body, dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.Wrap(apperrors.KindInput, apperrors.CodeInvalidRequest,
			"Request body must be a JSON object", err)
	}

	if err := b.validate.Struct(dst); err != nil {
		return apperrors.Wrap(apperrors.KindInput, apperrors.CodeInvalidRequest,
			validationMessage(err), err)
	}

	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("Field %s exceeds %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("Field %s is invalid", fe.Field())
	}
}
