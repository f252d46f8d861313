package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/darasa/platform/apps/api/echo"
	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/auth"
	"github.com/darasa/platform/core/realtime"
	"github.com/darasa/platform/core/user"
	emailsvc "github.com/darasa/platform/services/email"
	logsvc "github.com/darasa/platform/services/logger"
	"github.com/darasa/platform/storage/memory"
	redisstore "github.com/darasa/platform/storage/redis"
	sqlxstore "github.com/darasa/platform/storage/sqlx"
)

func main() {
	conf := core.NewConfig("config")
	std := log.New(os.Stdout, conf.AppName+" : ", log.LstdFlags|log.Lshortfile)

	// set up logging
	var logger core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up validation
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// set up the revocation store; redis is required for multi-instance
	// deployments, the in-process store is single-instance only.
	var store auth.RevocationStore
	if conf.Redis.Enabled {
		redisStore, err := redisstore.NewRevocationStore(conf.Redis, logger)
		errAndDie(std, err)
		defer redisStore.Close()
		store = redisStore
	} else {
		memStore := memory.NewRevocationStore()
		memStore.StartSweeping(ctx, time.Minute)
		store = memStore
	}

	// set up the user directory
	var directory user.Directory
	if conf.Debug {
		directory = memory.NewUserDirectory(devUsers()...)
	} else {
		db, err := sqlxstore.Open(conf.Database)
		errAndDie(std, err)
		defer db.Close()
		directory = sqlxstore.NewUserDirectory(db)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	tokenSvc := auth.NewTokenService(conf, store)
	authSvc := auth.NewService(tokenSvc, directory, mailSvc, logger)

	hub := realtime.NewHub(conf.Server, logger)
	go hub.Run(ctx)

	// start API server
	app := echoapi.NewServer(&echoapi.Options{
		Conf:           conf,
		Logger:         logger,
		AuthSvc:        authSvc,
		Hub:            hub,
		Validate:       validate,
		Translator:     translator,
		SignalShutdown: cancel,
	})

	go func() {
		if err := app.Start(); err != nil {
			logger.Info("server stopped", err)
		}
	}()

	// graceful shutdown on SIGINT/SIGTERM or integrity shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.Error("stopping server", err)
	}
}

// devUsers seeds the in-memory directory for local development.
func devUsers() []user.User {
	now := time.Now().UTC()
	mk := func(id, tenantID int, name, uname, email string, role user.Role) user.User {
		usr := user.User{
			ID: id, TenantID: tenantID,
			Name: name, Username: uname, Email: email,
			Role: role, IsActive: true,
			CreatedAt: now, UpdatedAt: now,
		}
		_ = usr.SetPassword("darasa.dev")
		return usr
	}
	return []user.User{
		mk(1, 0, "Root", "root", "root@darasa.dev", user.RoleSuperAdmin),
		mk(2, 1, "Ada Admin", "ada", "ada@darasa.dev", user.RoleTenantAdmin),
		mk(3, 1, "Tess Teacher", "tess", "tess@darasa.dev", user.RoleTeacher),
		mk(4, 1, "Sam Student", "sam", "sam@darasa.dev", user.RoleStudent),
	}
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
