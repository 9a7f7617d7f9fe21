package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	serverConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	databaseConfig struct {
		URI     string
		Name    string
		Timeout time.Duration
	}

	smtpConfig struct {
		Host     string
		Port     int
		Secure   bool
		User     string
		Password string
	}

	emailConfig struct {
		Provider          string // console | smtp | sendgrid | resend
		SendgridApiKey    string
		ResendApiKey      string
		NotifyConcurrency int
		SendTimeout       time.Duration
	}

	redisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	rateLimitConfig struct {
		Requests int
		Window   time.Duration
	}

	Config struct {
		Env             string
		Build           string
		WorkDir         string
		Debug           bool
		TestMode        bool
		AppName         string
		SecretKey       string
		FrontendBaseURL string
		RollbarToken    string

		Server    serverConfig
		Database  databaseConfig
		SMTP      smtpConfig
		Email     emailConfig
		Redis     redisConfig
		RateLimit rateLimitConfig

		defaultFromEmail string
	}
)

// NewConfig loads the configuration from the environment (prefixed by ENV) and the optional
// config/.env.<env> file.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "Enactus ISET Nabeul")
	conf.SetDefault("secretKey", "k2#f9v!r0-j@xq=8w$e6h^mz(1n&4b)s7u*ta5y%c3p+g")
	conf.SetDefault("frontendBaseUrl", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	conf.SetDefault("database.uri", "mongodb://localhost:27017")
	conf.SetDefault("database.name", "enactus")
	conf.SetDefault("database.timeout", 10*time.Second)

	conf.SetDefault("smtp.host", "")
	conf.SetDefault("smtp.port", 587)
	conf.SetDefault("smtp.secure", false)
	conf.SetDefault("smtp.user", "")
	conf.SetDefault("smtp.password", "")

	conf.SetDefault("email.provider", "")
	conf.SetDefault("email.sendgridApiKey", "")
	conf.SetDefault("email.resendApiKey", "")
	conf.SetDefault("email.notifyConcurrency", 1)
	conf.SetDefault("email.sendTimeout", 30*time.Second)

	conf.SetDefault("redis.addr", "")
	conf.SetDefault("redis.password", "")
	conf.SetDefault("redis.db", 0)

	conf.SetDefault("rateLimit.requests", 5)
	conf.SetDefault("rateLimit.window", time.Minute)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	// unprefixed SMTP variables of the relay deployments
	for key, envVar := range map[string]string{
		"smtp.host":     "SMTP_HOST",
		"smtp.port":     "SMTP_PORT",
		"smtp.secure":   "SMTP_SECURE",
		"smtp.user":     "SMTP_USER",
		"smtp.password": "SMTP_PASSWORD",
	} {
		_ = conf.BindEnv(key, env+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), envVar)
	}

	c := &Config{
		Env:             env,
		Build:           conf.GetString("build"),
		WorkDir:         wd,
		Debug:           conf.GetBool("debug"),
		TestMode:        env == "TEST",
		AppName:         conf.GetString("appName"),
		SecretKey:       conf.GetString("secretKey"),
		FrontendBaseURL: conf.GetString("frontendBaseUrl"),
		RollbarToken:    conf.GetString("rollbarToken"),
		Server: serverConfig{
			Host:               conf.GetString("server.host"),
			Address:            conf.GetString("server.address"),
			DebugHost:          conf.GetString("server.debugHost"),
			ShutdownTimeout:    conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: conf.GetDuration("server.jwtExpirationDelta"),
		},
		Database: databaseConfig{
			URI:     conf.GetString("database.uri"),
			Name:    conf.GetString("database.name"),
			Timeout: conf.GetDuration("database.timeout"),
		},
		SMTP: smtpConfig{
			Host:     conf.GetString("smtp.host"),
			Port:     conf.GetInt("smtp.port"),
			Secure:   conf.GetBool("smtp.secure"),
			User:     conf.GetString("smtp.user"),
			Password: conf.GetString("smtp.password"),
		},
		Email: emailConfig{
			Provider:          strings.ToLower(conf.GetString("email.provider")),
			SendgridApiKey:    conf.GetString("email.sendgridApiKey"),
			ResendApiKey:      conf.GetString("email.resendApiKey"),
			NotifyConcurrency: conf.GetInt("email.notifyConcurrency"),
			SendTimeout:       conf.GetDuration("email.sendTimeout"),
		},
		Redis: redisConfig{
			Addr:     conf.GetString("redis.addr"),
			Password: conf.GetString("redis.password"),
			DB:       conf.GetInt("redis.db"),
		},
		RateLimit: rateLimitConfig{
			Requests: conf.GetInt("rateLimit.requests"),
			Window:   conf.GetDuration("rateLimit.window"),
		},
	}
	if c.Email.Provider == "" {
		if c.Debug || c.TestMode {
			c.Email.Provider = "console"
		} else {
			c.Email.Provider = "smtp"
		}
	}

	c.defaultFromEmail = conf.GetString("defaultFromEmail")
	return c
}

// DefaultFromEmail is the sender used by every email gateway: the SMTP user when set.
func (c *Config) DefaultFromEmail() mail.Address {
	addr := c.defaultFromEmail
	if c.SMTP.User != "" {
		addr = c.SMTP.User
	}
	return mail.Address{Name: c.AppName, Address: addr}
}

// NewTestConfig returns a Config suited for tests, without reading the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:             "TEST",
		Build:           "test",
		TestMode:        true,
		AppName:         "Enactus ISET Nabeul",
		SecretKey:       "test-secret",
		FrontendBaseURL: "http://localhost:3000",
		Server: serverConfig{
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Email: emailConfig{
			Provider:          "console",
			NotifyConcurrency: 1,
			SendTimeout:       5 * time.Second,
		},
		RateLimit:        rateLimitConfig{Requests: 5, Window: time.Minute},
		defaultFromEmail: "noreply@localhost",
	}
}
