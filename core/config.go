package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		AppName          string
		SecretKey        []byte
		FrontendBaseURL  string
		DefaultFromEmail string
		SendgridAPIKey   string
		RollbarToken     string

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
	}

	ServerConfig struct {
		Host string
		Addr string

		AccessTokenExpirationDelta  time.Duration
		RefreshTokenExpirationDelta time.Duration

		// WebSocket keepalive
		WSWriteTimeout time.Duration
		WSPongTimeout  time.Duration
		WSPingInterval time.Duration
	}

	DatabaseConfig struct {
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		DisableTLS bool
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		Enabled  bool
	}
)

// NewConfig loads the app configuration from the environment.
// An optional `.env.{env}` file in configDir is loaded first if it exists.
func NewConfig(configDir string) *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Darasa")
	conf.SetDefault("secretKey", "h2(h!x)#*c2(#yg4h^$cegm2emy-poq5-wer)enb$+57=dz&uox")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddr", ":8000")
	conf.SetDefault("accessTokenExpirationDelta", 15*time.Minute)
	conf.SetDefault("refreshTokenExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("wsWriteTimeout", 10*time.Second)
	conf.SetDefault("wsPongTimeout", 60*time.Second)
	conf.SetDefault("wsPingInterval", 25*time.Second)
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", "5432")
	conf.SetDefault("databaseUser", "darasa")
	conf.SetDefault("databaseName", "darasa")
	conf.SetDefault("databaseDisableTLS", true)
	conf.SetDefault("redisAddr", "localhost:6379")
	conf.SetDefault("redisEnabled", false)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	if configDir != "" {
		dotEnvPath := filepath.Join(configDir, ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		Env:              env,
		AppName:          conf.GetString("appName"),
		SecretKey:        []byte(conf.GetString("secretKey")),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		DefaultFromEmail: conf.GetString("defaultFromEmail"),
		SendgridAPIKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                        conf.GetString("serverHost"),
			Addr:                        conf.GetString("serverAddr"),
			AccessTokenExpirationDelta:  conf.GetDuration("accessTokenExpirationDelta"),
			RefreshTokenExpirationDelta: conf.GetDuration("refreshTokenExpirationDelta"),
			WSWriteTimeout:              conf.GetDuration("wsWriteTimeout"),
			WSPongTimeout:               conf.GetDuration("wsPongTimeout"),
			WSPingInterval:              conf.GetDuration("wsPingInterval"),
		},
		Database: DatabaseConfig{
			Host:       conf.GetString("databaseHost"),
			Port:       conf.GetString("databasePort"),
			User:       conf.GetString("databaseUser"),
			Password:   conf.GetString("databasePassword"),
			Name:       conf.GetString("databaseName"),
			DisableTLS: conf.GetBool("databaseDisableTLS"),
		},
		Redis: RedisConfig{
			Addr:     conf.GetString("redisAddr"),
			Password: conf.GetString("redisPassword"),
			DB:       conf.GetInt("redisDB"),
			Enabled:  conf.GetBool("redisEnabled"),
		},
	}
}
