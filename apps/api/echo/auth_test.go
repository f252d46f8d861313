package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasa/platform/core/auth"
	"github.com/darasa/platform/core/user"
)

func Test_authApi_login(t *testing.T) {
	srv, dir, _, _ := setup(t)

	createUser(t, dir, 7, "Ada Admin", "ada", "ada@test.cd", "s3cret!", user.RoleTenantAdmin, true)
	createUser(t, dir, 7, "N Dog", "ndog", "ndog@test.cd", "s3cret!", user.RoleStudent, false)

	tests := []struct {
		name     string
		body     []byte
		wantCode int
	}{
		{
			name:     "valid credentials",
			body:     marchallObj(t, LoginRequest{Username: "ada", Password: "s3cret!"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "email works as username",
			body:     marchallObj(t, LoginRequest{Username: "ada@test.cd", Password: "s3cret!"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, LoginRequest{Username: "ada", Password: "nope"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown user",
			body:     marchallObj(t, LoginRequest{Username: "ghost", Password: "s3cret!"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing fields",
			body:     marchallObj(t, LoginRequest{Username: "ada"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "deactivated account",
			body:     marchallObj(t, LoginRequest{Username: "ndog", Password: "s3cret!"}),
			wantCode: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", tt.body)
			srv.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}

			var res LoginResponse
			decodeBody(t, rec, &res)
			assert.NotEmpty(t, res.AccessToken)
			assert.NotEmpty(t, res.RefreshToken)
			assert.Equal(t, 7, res.Identity.TenantID)
			assert.Equal(t, user.RoleTenantAdmin, res.Identity.Role)
		})
	}
}

func login(t *testing.T, srv Server, username, password string) LoginResponse {
	t.Helper()
	req, rec := newRequest(http.MethodPost, "/v1/auth/login",
		marchallObj(t, LoginRequest{Username: username, Password: password}))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res LoginResponse
	decodeBody(t, rec, &res)
	return res
}

func Test_authApi_refresh(t *testing.T) {
	srv, dir, _, _ := setup(t)
	createUser(t, dir, 7, "Ada Admin", "ada", "ada@test.cd", "s3cret!", user.RoleTenantAdmin, true)

	res := login(t, srv, "ada", "s3cret!")
	r1 := res.RefreshToken

	// R1 -> R2
	req, rec := newRequest(http.MethodPost, "/v1/auth/token-refresh",
		marchallObj(t, RefreshRequest{RefreshToken: r1}))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pair2 auth.TokenPair
	decodeBody(t, rec, &pair2)
	assert.NotEqual(t, r1, pair2.RefreshToken)

	t.Run("replayed token is revoked", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/token-refresh",
			marchallObj(t, RefreshRequest{RefreshToken: r1}))
		srv.ServeHTTP(rec, req)
		checkAPIError(t, rec, http.StatusUnauthorized, CodeTokenRevoked)
	})

	t.Run("latest token still rotates", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/token-refresh",
			marchallObj(t, RefreshRequest{RefreshToken: pair2.RefreshToken}))
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("garbage token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/token-refresh",
			marchallObj(t, RefreshRequest{RefreshToken: "garbage"}))
		srv.ServeHTTP(rec, req)
		checkAPIError(t, rec, http.StatusUnauthorized, CodeInvalidRefreshToken)
	})

	t.Run("missing token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/token-refresh", marchallObj(t, RefreshRequest{}))
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})
}

func Test_authApi_logout(t *testing.T) {
	srv, dir, _, _ := setup(t)
	createUser(t, dir, 7, "Ada Admin", "ada", "ada@test.cd", "s3cret!", user.RoleTenantAdmin, true)

	res := login(t, srv, "ada", "s3cret!")

	t.Run("requires authentication", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/logout",
			marchallObj(t, LogoutRequest{RefreshToken: res.RefreshToken}))
		srv.ServeHTTP(rec, req)
		checkAPIError(t, rec, http.StatusUnauthorized, CodeNoTokenProvided)
	})

	t.Run("revokes the refresh token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/auth/logout", res.AccessToken,
			marchallObj(t, LogoutRequest{RefreshToken: res.RefreshToken}))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		req, rec = newRequest(http.MethodPost, "/v1/auth/token-refresh",
			marchallObj(t, RefreshRequest{RefreshToken: res.RefreshToken}))
		srv.ServeHTTP(rec, req)
		checkAPIError(t, rec, http.StatusUnauthorized, CodeTokenRevoked)
	})

	t.Run("cannot revoke another user's token", func(t *testing.T) {
		createUser(t, dir, 7, "Tess Teacher", "tess", "tess@test.cd", "s3cret!", user.RoleTeacher, true)
		other := login(t, srv, "tess", "s3cret!")
		mine := login(t, srv, "ada", "s3cret!")

		req, rec := newAuthRequest(http.MethodPost, "/v1/auth/logout", other.AccessToken,
			marchallObj(t, LogoutRequest{RefreshToken: mine.RefreshToken}))
		srv.ServeHTTP(rec, req)
		checkAPIError(t, rec, http.StatusUnauthorized, CodeInvalidRefreshToken)
	})
}

func Test_authApi_me(t *testing.T) {
	srv, dir, authSvc, _ := setup(t)
	usr := createUser(t, dir, 7, "Ada Admin", "ada", "ada@test.cd", "s3cret!", user.RoleTenantAdmin, true)

	t.Run("requires authentication", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/auth/me")
		srv.ServeHTTP(rec, req)
		checkAPIError(t, rec, http.StatusUnauthorized, CodeNoTokenProvided)
	})

	t.Run("returns the token's identity", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/auth/me", getToken(t, authSvc, usr))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var identity auth.Identity
		decodeBody(t, rec, &identity)
		assert.Equal(t, usr.ID, identity.ID)
		assert.Equal(t, usr.TenantID, identity.TenantID)
		assert.Equal(t, usr.Role, identity.Role)
	})
}
