package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/auth"
	"github.com/darasa/platform/core/user"
	"github.com/darasa/platform/storage/memory"
)

func newGuard() *Guard {
	tokens := auth.NewTokenService(testConfig(), memory.NewRevocationStore())
	return NewGuard(tokens, discardLogger())
}

func passThrough(called *bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		*called = true
		return ctx.NoContent(http.StatusOK)
	}
}

func Test_Guard_Authenticate(t *testing.T) {
	guard := newGuard()
	e := echo.New()
	identity := auth.Identity{ID: 2, TenantID: 7, Role: user.RoleTenantAdmin, Permissions: user.RoleTenantAdmin.Permissions()}

	validPair, err := guard.tokens.Issue(identity)
	require.NoError(t, err)

	auth.NowFunc = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredPair, err := guard.tokens.Issue(identity)
	auth.NowFunc = time.Now
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr *echo.HTTPError
	}{
		{name: "no token", wantErr: errNoToken},
		{name: "garbage token", token: "not.a.token", wantErr: errInvalidToken},
		{name: "expired token", token: expiredPair.AccessToken, wantErr: errTokenExpired},
		{name: "refresh token is not accepted", token: validPair.RefreshToken, wantErr: errInvalidToken},
		{name: "valid token", token: validPair.AccessToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/", tt.token)
			ctx := e.NewContext(req, rec)

			var called bool
			err := guard.Authenticate(passThrough(&called))(ctx)

			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				assert.False(t, called)
				return
			}
			require.NoError(t, err)
			assert.True(t, called)

			got, err := GetContextIdentity(ctx)
			require.NoError(t, err)
			assert.Equal(t, identity, got)
		})
	}
}

func Test_Guard_Authorize(t *testing.T) {
	guard := newGuard()
	e := echo.New()

	run := func(identity *auth.Identity, roles ...user.Role) (bool, error) {
		req, rec := newRequest(http.MethodGet, "/")
		ctx := e.NewContext(req, rec)
		if identity != nil {
			ctx.Set(identityContextKey, *identity)
		}
		var called bool
		err := guard.Authorize(roles...)(passThrough(&called))(ctx)
		return called, err
	}

	t.Run("allowed role passes", func(t *testing.T) {
		identity := auth.Identity{ID: 3, TenantID: 1, Role: user.RoleTeacher}
		called, err := run(&identity, user.RoleTeacher, user.RoleTenantAdmin)
		assert.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("role outside the allowed set is refused", func(t *testing.T) {
		identity := auth.Identity{ID: 4, TenantID: 1, Role: user.RoleStudent}
		called, err := run(&identity, user.RoleTenantAdmin)
		assert.Equal(t, errForbiddenRole, err)
		assert.False(t, called)
	})

	t.Run("unauthenticated request is refused", func(t *testing.T) {
		called, err := run(nil, user.RoleStudent)
		assert.Equal(t, errNoToken, err)
		assert.False(t, called)
	})
}

func Test_Guard_VerifyTenantAccess(t *testing.T) {
	guard := newGuard()
	e := echo.New()

	run := func(identity auth.Identity, routeTenantID, forcedHeader string) (echo.Context, bool, error) {
		req, rec := newRequest(http.MethodGet, "/")
		if forcedHeader != "" {
			req.Header.Set(ForcedTenantHeader, forcedHeader)
		}
		ctx := e.NewContext(req, rec)
		ctx.SetParamNames("tenantID")
		ctx.SetParamValues(routeTenantID)
		ctx.Set(identityContextKey, identity)

		var called bool
		err := guard.VerifyTenantAccess("tenantID")(passThrough(&called))(ctx)
		return ctx, called, err
	}

	admin := auth.Identity{ID: 2, TenantID: 7, Role: user.RoleTenantAdmin}
	root := auth.Identity{ID: 1, Role: user.RoleSuperAdmin}

	t.Run("own tenant passes", func(t *testing.T) {
		ctx, called, err := run(admin, "7", "")
		require.NoError(t, err)
		assert.True(t, called)

		tenantID, ok := ContextTenantID(ctx)
		require.True(t, ok)
		assert.Equal(t, 7, tenantID)
	})

	t.Run("another tenant is denied", func(t *testing.T) {
		_, called, err := run(admin, "9", "")
		assert.Equal(t, errCrossTenant, err)
		assert.False(t, called)
	})

	t.Run("malformed tenant id is rejected", func(t *testing.T) {
		for _, raw := range []string{"abc", "-1", "0", ""} {
			_, called, err := run(admin, raw, "")
			assert.IsType(t, &core.ValidationError{}, err, "tenant id %q", raw)
			assert.False(t, called)
		}
	})

	t.Run("global role crosses tenants", func(t *testing.T) {
		ctx, called, err := run(root, "9", "")
		require.NoError(t, err)
		assert.True(t, called)

		tenantID, ok := ContextTenantID(ctx)
		require.True(t, ok)
		assert.Equal(t, 9, tenantID)
	})

	t.Run("global role forces a tenant via header", func(t *testing.T) {
		ctx, called, err := run(root, "9", "12")
		require.NoError(t, err)
		assert.True(t, called)

		tenantID, ok := ContextTenantID(ctx)
		require.True(t, ok)
		assert.Equal(t, 12, tenantID)
	})

	t.Run("malformed forced tenant header is rejected", func(t *testing.T) {
		for _, raw := range []string{"abc", "-3", "0"} {
			_, called, err := run(root, "9", raw)
			assert.IsType(t, &core.ValidationError{}, err, "forced header %q", raw)
			assert.False(t, called)
		}
	})
}

func Test_correlationIDMiddleware(t *testing.T) {
	e := echo.New()

	t.Run("generates an id when absent", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/")
		ctx := e.NewContext(req, rec)

		var called bool
		require.NoError(t, correlationIDMiddleware(passThrough(&called))(ctx))
		assert.True(t, called)
		assert.NotEmpty(t, rec.Header().Get(correlationIDHeader))
		assert.Equal(t, rec.Header().Get(correlationIDHeader), contextCorrelationID(ctx))
	})

	t.Run("propagates the caller's id", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/")
		req.Header.Set(correlationIDHeader, "cid-123")
		ctx := e.NewContext(req, rec)

		var called bool
		require.NoError(t, correlationIDMiddleware(passThrough(&called))(ctx))
		assert.Equal(t, "cid-123", rec.Header().Get(correlationIDHeader))
	})
}
