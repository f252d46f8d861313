package sqlxstore

import (
	"context"
	"database/sql"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/user"
)

// UserDirectory is the production read-only user lookup over Postgres.
// Account CRUD lives in the admin services; this side only reads, plus one
// informational last-login write.
type UserDirectory struct {
	db *sqlx.DB
}

var _ user.Directory = (*UserDirectory)(nil)

// Open connects to the configured database and pings it.
func Open(conf core.DatabaseConfig) (*sqlx.DB, error) {
	sslMode := "require"
	if conf.DisableTLS {
		sslMode = "disable"
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(conf.User, conf.Password),
		Host:     conf.Host + ":" + conf.Port,
		Path:     conf.Name,
		RawQuery: url.Values{"sslmode": []string{sslMode}, "timezone": []string{"utc"}}.Encode(),
	}

	db, err := sqlx.Connect("postgres", dsn.String())
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	return db, nil
}

func NewUserDirectory(db *sqlx.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

const userColumns = `id, tenant_id, name, username, email, role, is_active, is_deleted, password_hash, created_at, updated_at, last_login`

func (dir *UserDirectory) GetUserByID(ctx context.Context, id int) (user.User, error) {
	var usr user.User
	err := dir.db.GetContext(ctx, &usr,
		`SELECT `+userColumns+` FROM "user" WHERE id = $1 AND is_deleted = false`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user by id")
	}
	return usr, nil
}

func (dir *UserDirectory) GetUserByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	var usr user.User
	err := dir.db.GetContext(ctx, &usr,
		`SELECT `+userColumns+` FROM "user" WHERE (username = $1 OR email = $1) AND is_deleted = false`, uname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user by username or email")
	}
	return usr, nil
}

func (dir *UserDirectory) SetLastLogin(ctx context.Context, usr user.User) (user.User, error) {
	usr.LastLogin = time.Now().UTC()
	_, err := dir.db.ExecContext(ctx,
		`UPDATE "user" SET last_login = $1 WHERE id = $2`, usr.LastLogin, usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting last login")
	}
	return usr, nil
}
