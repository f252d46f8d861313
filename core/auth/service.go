package auth

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/user"
)

type (
	// LoginResult is returned by a successful credential authentication.
	LoginResult struct {
		TokenPair
		Identity Identity `json:"identity"`
	}

	// Service owns the token lifecycle: login, refresh rotation and logout.
	// Identity is always re-derived from the user directory here, never
	// trusted from inbound claims beyond the subject id.
	Service struct {
		tokens    *TokenService
		directory user.Directory
		mailSvc   core.EmailService
		logger    core.Logger
	}
)

func NewService(tokens *TokenService, directory user.Directory, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		tokens:    tokens,
		directory: directory,
		mailSvc:   mailSvc,
		logger:    logger,
	}
}

func (svc *Service) Tokens() *TokenService { return svc.tokens }

// Authenticate verifies credentials against the directory and issues a pair.
func (svc *Service) Authenticate(ctx context.Context, usernameOrEmail, password string) (LoginResult, error) {
	usr, err := svc.directory.GetUserByUsernameOrEmail(ctx, core.CleanString(usernameOrEmail, true /* lower */))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if !usr.IsActive || usr.IsDeleted {
		return LoginResult{}, ErrAccountDeactivated
	}

	identity, err := NewIdentity(usr)
	if err != nil {
		return LoginResult{}, err
	}

	if usr, err = svc.directory.SetLastLogin(ctx, usr); err != nil {
		// login proceeds; the timestamp is informational
		svc.logger.Warn("setting lastLogin", err, identity)
	}

	pair, err := svc.tokens.Issue(identity)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{TokenPair: pair, Identity: identity}, nil
}

// Refresh rotates a refresh token into a new pair. The old token becomes
// single-use; a replay after rotation is treated as a theft signal and the
// account owner is alerted.
func (svc *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	pair, _, err := svc.tokens.Rotate(ctx, refreshToken, svc.freshIdentity)
	if err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			svc.alertTokenReplay(refreshToken)
			return TokenPair{}, ErrTokenRevoked
		}
		if errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrTokenMalformed) || errors.Is(err, ErrTokenSignatureInvalid) {
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, err
	}
	return pair, nil
}

// Logout revokes the presented refresh token. The token must belong to the
// identity performing the logout.
func (svc *Service) Logout(ctx context.Context, identityID int, refreshToken string) error {
	claims, err := svc.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}
	if claims.Subject != fmt.Sprintf("%d", identityID) {
		return ErrInvalidRefreshToken
	}
	return svc.tokens.Revoke(ctx, claims)
}

// freshIdentity re-derives an identity from the source-of-truth record,
// refusing deactivated or deleted accounts.
func (svc *Service) freshIdentity(ctx context.Context, userID int) (Identity, error) {
	usr, err := svc.directory.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Identity{}, ErrInvalidRefreshToken
		}
		return Identity{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive || usr.IsDeleted {
		return Identity{}, ErrAccountDeactivated
	}
	return NewIdentity(usr)
}

// alertTokenReplay emails the token's subject that a rotated refresh token
// was replayed. Best effort; verification failures are ignored since the
// replayed token may be arbitrarily mangled.
func (svc *Service) alertTokenReplay(refreshToken string) {
	if svc.mailSvc == nil {
		return
	}
	claims, err := svc.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return
	}
	userID := 0
	fmt.Sscanf(claims.Subject, "%d", &userID)
	usr, err := svc.directory.GetUserByID(context.Background(), userID)
	if err != nil || usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Security alert: a session token was reused",
		Body: "A previously used session token for your account was presented again. " +
			"If this was not you, please change your password immediately.",
	})
	svc.logger.Warn("refresh token replayed after rotation", fmt.Sprintf("user_id=%d", userID))
}
