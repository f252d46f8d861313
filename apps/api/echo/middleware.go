package echoapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/auth"
	"github.com/darasa/platform/core/user"
)

const (
	identityContextKey    = "identity"
	tenantContextKey      = "tenantID"
	correlationContextKey = "correlationID"

	// ForcedTenantHeader lets the global super-role address a specific
	// tenant on cross-tenant admin operations.
	ForcedTenantHeader = "X-Tenant-ID"

	correlationIDHeader = "X-Correlation-ID"
)

var errIdentityNotInCtx = errors.New("identity not found in echo.Context")

// Guard is the per-request authentication/authorization chain. Each stage
// short-circuits with a typed failure; later stages assume earlier ones ran.
type Guard struct {
	tokens *auth.TokenService
	logger core.Logger
}

func NewGuard(tokens *auth.TokenService, logger core.Logger) *Guard {
	return &Guard{tokens: tokens, logger: logger}
}

// correlationIDMiddleware tags every request with an id carried into logs.
func correlationIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cid := ctx.Request().Header.Get(correlationIDHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		ctx.Set(correlationContextKey, cid)
		ctx.Response().Header().Set(correlationIDHeader, cid)
		return next(ctx)
	}
}

// Authenticate validates the bearer token and attaches the Identity to the
// request context. Raw tokens are never logged.
func (g *Guard) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, ok := bearerToken(ctx.Request())
		if !ok {
			g.warn(ctx, "request without credentials")
			return errNoToken
		}

		identity, err := g.tokens.VerifyAccess(token)
		if err != nil {
			g.warn(ctx, fmt.Sprintf("token verification failed: %v", err))
			return authFailureError(err)
		}

		ctx.Set(identityContextKey, identity)
		return next(ctx)
	}
}

// Authorize only admits identities whose role is in the allowed set.
func (g *Guard) Authorize(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			identity, err := GetContextIdentity(ctx)
			if err != nil {
				return errNoToken
			}
			for _, role := range roles {
				if identity.Role == role {
					return next(ctx)
				}
			}
			g.warn(ctx, fmt.Sprintf("role %s not allowed", identity.Role), identity)
			return errForbiddenRole
		}
	}
}

// VerifyTenantAccess compares the route's tenant parameter against the
// identity's tenant. The global super-role bypasses the match and may force
// a tenant via header; a forced id must be a well-formed positive integer.
func (g *Guard) VerifyTenantAccess(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			identity, err := GetContextIdentity(ctx)
			if err != nil {
				return errNoToken
			}

			routeTenantID, err := positiveInt(ctx.Param(param))
			if err != nil {
				return core.NewValidationError(nil,
					core.FieldError{Field: param, Error: "a well-formed positive tenant id is required"})
			}

			if identity.IsGlobal() {
				tenantID := routeTenantID
				if forced := ctx.Request().Header.Get(ForcedTenantHeader); forced != "" {
					if tenantID, err = positiveInt(forced); err != nil {
						return core.NewValidationError(nil,
							core.FieldError{Field: ForcedTenantHeader, Error: "a well-formed positive tenant id is required"})
					}
				}
				ctx.Set(tenantContextKey, tenantID)
				return next(ctx)
			}

			if routeTenantID != identity.TenantID {
				g.warn(ctx, fmt.Sprintf("cross-tenant access attempt on tenant %d", routeTenantID), identity)
				return errCrossTenant
			}
			ctx.Set(tenantContextKey, routeTenantID)
			return next(ctx)
		}
	}
}

// GetContextIdentity returns the authenticated Identity set by Authenticate.
func GetContextIdentity(ctx echo.Context) (auth.Identity, error) {
	if identity, ok := ctx.Get(identityContextKey).(auth.Identity); ok {
		return identity, nil
	}
	return auth.Identity{}, errIdentityNotInCtx
}

// ContextTenantID returns the tenant the request is effectively scoped to.
func ContextTenantID(ctx echo.Context) (int, bool) {
	tenantID, ok := ctx.Get(tenantContextKey).(int)
	return tenantID, ok
}

func (g *Guard) warn(ctx echo.Context, msg string, args ...interface{}) {
	args = append(args,
		"path="+ctx.Request().URL.Path,
		"correlation_id="+contextCorrelationID(ctx),
	)
	g.logger.Warn(msg, args...)
}

func contextCorrelationID(ctx echo.Context) string {
	if cid, ok := ctx.Get(correlationContextKey).(string); ok {
		return cid
	}
	return ""
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(req *http.Request) (string, bool) {
	header := req.Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.Errorf("%d is not positive", n)
	}
	return n, nil
}
