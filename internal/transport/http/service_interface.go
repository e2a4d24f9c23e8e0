package http

import (
	"context"

	"tokenauth/internal/license"
)

// TokenService is the subset of license.Service the handlers depend on
type TokenService interface {
	Verify(ctx context.Context, channel license.Channel, token string) license.Verdict
	Register(ctx context.Context, token, expires string) (license.RegisterResult, error)
	Extend(ctx context.Context, token, expires string) (license.ExtendResult, error)
	Delete(ctx context.Context, token string) error
	Status(ctx context.Context) license.StatusReport
	List(ctx context.Context) []license.TokenEntry
	Reload(ctx context.Context) (int, error)
}

var _ TokenService = (*license.Service)(nil)
