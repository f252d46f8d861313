package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/auth"
	"github.com/darasa/platform/core/realtime"
	"github.com/darasa/platform/core/user"
	emailsvc "github.com/darasa/platform/services/email"
	logsvc "github.com/darasa/platform/services/logger"
	"github.com/darasa/platform/storage/memory"
)

func testConfig() *core.Config {
	return &core.Config{
		AppName:   "Darasa",
		SecretKey: []byte("secret"),
		TestMode:  true,
		Server: core.ServerConfig{
			AccessTokenExpirationDelta:  10 * time.Minute,
			RefreshTokenExpirationDelta: 4 * time.Hour,
			WSWriteTimeout:              10 * time.Second,
			WSPongTimeout:               time.Minute,
			WSPingInterval:              54 * time.Second,
		},
	}
}

func discardLogger() core.Logger {
	return logsvc.NewStdLogger(log.New(io.Discard, "", 0))
}

func setup(t *testing.T) (Server, *memory.UserDirectory, *auth.Service, *realtime.Hub) {
	t.Helper()
	conf := testConfig()
	logger := discardLogger()
	dir := memory.NewUserDirectory()
	store := memory.NewRevocationStore()
	authSvc := auth.NewService(auth.NewTokenService(conf, store), dir, emailsvc.NewConsoleService(conf), logger)
	hub := realtime.NewHub(conf.Server, logger)

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)

	srv := NewServer(&Options{
		Conf:           conf,
		Logger:         logger,
		AuthSvc:        authSvc,
		Hub:            hub,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return srv, dir, authSvc, hub
}

func createUser(t *testing.T, dir *memory.UserDirectory, tenantID int, name, uname, email, pwd string, role user.Role, isActive bool) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	usr := user.User{
		TenantID:  tenantID,
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	return dir.Add(usr)
}

func getToken(t *testing.T, svc *auth.Service, usr user.User) string {
	t.Helper()
	identity, err := auth.NewIdentity(usr)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	pair, err := svc.Tokens().Issue(identity)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return pair.AccessToken
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decodeBody() failed: %v; body %s", err, rec.Body.String())
	}
}

// checkAPIError asserts the status and machine-readable code of a failure.
func checkAPIError(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	if rec.Code != wantStatus {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, wantStatus, rec.Body.String())
	}
	var body struct {
		Code string `json:"code"`
	}
	decodeBody(t, rec, &body)
	if body.Code != wantCode {
		t.Errorf("failed! error code = %q; want %q; body %s", body.Code, wantCode, rec.Body.String())
	}
}
