package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/user"
)

const refreshTokenType = "refresh"

var NowFunc = time.Now // mockable

type (
	// AccessClaims are the authorization claims transmitted via an access JWT.
	AccessClaims struct {
		jwt.RegisteredClaims
		TenantID    int       `json:"tid,omitempty"`
		Role        user.Role `json:"role"`
		Permissions []string  `json:"perms,omitempty"`
		Email       string    `json:"email,omitempty"`
	}

	// RefreshClaims carry only the subject; the identity is re-derived from
	// the user directory when the token is redeemed.
	RefreshClaims struct {
		jwt.RegisteredClaims
		TokenType string `json:"typ"`
	}

	// TokenPair is what a successful login, refresh or rotation returns.
	TokenPair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"` // access token lifetime, seconds
	}

	// TokenService issues, verifies and rotates signed token pairs.
	// Access-token verification is pure signature+expiry checking; only
	// refresh rotation touches the revocation store.
	TokenService struct {
		conf  *core.Config
		store RevocationStore
	}
)

func NewTokenService(conf *core.Config, store RevocationStore) *TokenService {
	return &TokenService{conf: conf, store: store}
}

// Issue signs a fresh access+refresh pair for the given identity.
// The server keeps no record of issued tokens; only revocations are tracked.
func (svc *TokenService) Issue(identity Identity) (TokenPair, error) {
	now := NowFunc()
	accessDelta := svc.conf.Server.AccessTokenExpirationDelta
	refreshDelta := svc.conf.Server.RefreshTokenExpirationDelta

	access := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    svc.conf.AppName,
			Subject:   strconv.Itoa(identity.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessDelta)),
			ID:        uuid.NewString(),
		},
		TenantID:    identity.TenantID,
		Role:        identity.Role,
		Permissions: identity.Permissions,
		Email:       identity.Email,
	}
	accessToken, err := svc.sign(access)
	if err != nil {
		return TokenPair{}, errors.Wrap(err, "signing access token")
	}

	refresh := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    svc.conf.AppName,
			Subject:   strconv.Itoa(identity.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(refreshDelta)),
			ID:        uuid.NewString(),
		},
		TokenType: refreshTokenType,
	}
	refreshToken, err := svc.sign(refresh)
	if err != nil {
		return TokenPair{}, errors.Wrap(err, "signing refresh token")
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(accessDelta / time.Second),
	}, nil
}

// VerifyAccess checks signature and expiry and returns the embedded Identity.
// No storage round trip: the per-request path stays CPU-bound.
func (svc *TokenService) VerifyAccess(token string) (Identity, error) {
	var claims AccessClaims
	if err := svc.parse(token, &claims); err != nil {
		return Identity{}, err
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return Identity{}, ErrTokenMalformed
	}
	if !claims.Role.Valid() {
		return Identity{}, ErrTokenMalformed
	}
	if claims.TenantID == 0 && !claims.Role.IsGlobal() {
		return Identity{}, ErrTokenMalformed
	}
	return Identity{
		ID:          id,
		TenantID:    claims.TenantID,
		Role:        claims.Role,
		Permissions: claims.Permissions,
		Email:       claims.Email,
	}, nil
}

// VerifyRefresh checks signature, expiry and token type. Revocation is the
// caller's concern; see Rotate.
func (svc *TokenService) VerifyRefresh(token string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := svc.parse(token, &claims); err != nil {
		return RefreshClaims{}, err
	}
	if claims.TokenType != refreshTokenType {
		return RefreshClaims{}, ErrTokenMalformed
	}
	if _, err := strconv.Atoi(claims.Subject); err != nil {
		return RefreshClaims{}, ErrTokenMalformed
	}
	return claims, nil
}

// Rotate redeems a refresh token for a new pair. The old token is
// atomically claimed in the revocation store before the new pair is issued,
// making it single-use: a concurrent or later replay fails with
// ErrTokenRevoked. freshIdentity re-derives the identity from the
// source-of-truth user record.
func (svc *TokenService) Rotate(
	ctx context.Context,
	refreshToken string,
	freshIdentity func(ctx context.Context, userID int) (Identity, error),
) (TokenPair, Identity, error) {
	claims, err := svc.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, Identity{}, err
	}

	// claim-and-revoke: exactly one caller wins this jti.
	// Store failures deny; a possibly-revoked token is never admitted.
	claimed, err := svc.store.Claim(ctx, claims.ID, ttlUntil(claims.ExpiresAt.Time))
	if err != nil {
		return TokenPair{}, Identity{}, errors.Wrap(err, "claiming refresh token")
	}
	if !claimed {
		return TokenPair{}, Identity{}, ErrTokenRevoked
	}

	userID, _ := strconv.Atoi(claims.Subject)
	identity, err := freshIdentity(ctx, userID)
	if err != nil {
		return TokenPair{}, Identity{}, err
	}

	pair, err := svc.Issue(identity)
	if err != nil {
		return TokenPair{}, Identity{}, err
	}
	return pair, identity, nil
}

// Revoke marks a verified refresh token unusable until its natural expiry.
func (svc *TokenService) Revoke(ctx context.Context, claims RefreshClaims) error {
	return svc.store.Revoke(ctx, claims.ID, ttlUntil(claims.ExpiresAt.Time))
}

// IsRevoked reports whether a refresh token has been revoked. Fails closed:
// the error must be treated as a denial by callers.
func (svc *TokenService) IsRevoked(ctx context.Context, claims RefreshClaims) (bool, error) {
	return svc.store.IsRevoked(ctx, claims.ID)
}

func (svc *TokenService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(svc.conf.SecretKey)
}

func (svc *TokenService) parse(token string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (interface{}, error) {
		return svc.conf.SecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(NowFunc))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return ErrTokenSignatureInvalid
		default:
			return ErrTokenMalformed
		}
	}
	if !parsed.Valid {
		return ErrTokenMalformed
	}
	return nil
}

// ttlUntil bounds a revocation entry's lifetime by the token's own expiry.
func ttlUntil(exp time.Time) time.Duration {
	ttl := exp.Sub(NowFunc())
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}
