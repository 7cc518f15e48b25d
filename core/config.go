package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName         string
		Env             string // DEV (local; default), TEST, QA, PROD
		Build           string
		Debug           bool
		TestMode        bool
		SecretKey       string
		FrontendBaseURL string
		TimeZone        string
		RollbarToken    string

		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration

		Server    ServerConfig
		Database  DatabaseConfig
		Email     EmailConfig
		Geocoding GeocodingConfig
		RateLimit RateLimitConfig
	}

	ServerConfig struct {
		Host            string
		Port            string
		DebugHost       string
		ShutdownTimeout time.Duration
		CORSOrigins     []string
		BodyLimit       string
	}

	DatabaseConfig struct {
		Engine         string
		Host           string
		Port           string
		Name           string
		User           string
		Password       string
		AdminUser      string
		AdminPassword  string
		DisableTLS     bool
		MaxOpenConns   int
		MaxIdleTime    time.Duration
		ConnectTimeout time.Duration
	}

	EmailConfig struct {
		DefaultFromEmail mail.Address
		SendgridAPIKey   string
		AdminEmail       string // fallback recipient of leave requests
	}

	GeocodingConfig struct {
		Provider     string // google | nominatim
		GoogleAPIKey string
		UserAgent    string
		Timeout      time.Duration
	}

	RateLimitConfig struct {
		AuthLimit  int64
		AuthPeriod time.Duration
	}
)

func (c ServerConfig) Address() string { return net.JoinHostPort(c.Host, c.Port) }

func (c DatabaseConfig) Address() string { return net.JoinHostPort(c.Host, c.Port) }

// Location loads the business time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Attendix")
	conf.SetDefault("build", "develop")
	conf.SetDefault("secretKey", "a7x%4k$p-2m!zq9(ve8w)h3t#n0=r6d&u1c@y5b^f")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("timeZone", "Asia/Kolkata")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("jwtExpirationDelta", 24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)

	conf.SetDefault("serverHost", "")
	conf.SetDefault("serverPort", "5000")
	conf.SetDefault("serverDebugHost", "0.0.0.0:4000")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("serverCORSOrigins", "*")
	conf.SetDefault("serverBodyLimit", "2M")

	conf.SetDefault("databaseEngine", "postgres")
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", "5432")
	conf.SetDefault("databaseName", "attendix")
	conf.SetDefault("databaseUser", "attendix")
	conf.SetDefault("databasePassword", "attendix")
	conf.SetDefault("databaseAdminUser", "postgres")
	conf.SetDefault("databaseAdminPassword", "")
	conf.SetDefault("databaseDisableTLS", true)
	conf.SetDefault("databaseMaxOpenConns", 10)
	conf.SetDefault("databaseMaxIdleTime", 30*time.Second)
	conf.SetDefault("databaseConnectTimeout", 2*time.Second)

	conf.SetDefault("defaultFromEmail", "Attendix <noreply@localhost>")
	conf.SetDefault("sendgridAPIKey", "")
	conf.SetDefault("adminEmail", "")

	conf.SetDefault("geocodingProvider", "google")
	conf.SetDefault("googleMapsAPIKey", "")
	conf.SetDefault("geocodingUserAgent", "attendix-backend/1.0")
	conf.SetDefault("geocodingTimeout", 10*time.Second)

	conf.SetDefault("authRateLimit", 20)
	conf.SetDefault("authRatePeriod", time.Minute)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	from, err := mail.ParseAddress(conf.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		AppName:                   conf.GetString("appName"),
		Env:                       env,
		Build:                     conf.GetString("build"),
		Debug:                     conf.GetBool("debug"),
		TestMode:                  conf.GetBool("testMode"),
		SecretKey:                 conf.GetString("secretKey"),
		FrontendBaseURL:           conf.GetString("frontendBaseURL"),
		TimeZone:                  conf.GetString("timeZone"),
		RollbarToken:              conf.GetString("rollbarToken"),
		JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
		JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		Server: ServerConfig{
			Host:            conf.GetString("serverHost"),
			Port:            conf.GetString("serverPort"),
			DebugHost:       conf.GetString("serverDebugHost"),
			ShutdownTimeout: conf.GetDuration("serverShutdownTimeout"),
			CORSOrigins:     splitList(conf.GetString("serverCORSOrigins")),
			BodyLimit:       conf.GetString("serverBodyLimit"),
		},
		Database: DatabaseConfig{
			Engine:         conf.GetString("databaseEngine"),
			Host:           conf.GetString("databaseHost"),
			Port:           conf.GetString("databasePort"),
			Name:           conf.GetString("databaseName"),
			User:           conf.GetString("databaseUser"),
			Password:       conf.GetString("databasePassword"),
			AdminUser:      conf.GetString("databaseAdminUser"),
			AdminPassword:  conf.GetString("databaseAdminPassword"),
			DisableTLS:     conf.GetBool("databaseDisableTLS"),
			MaxOpenConns:   conf.GetInt("databaseMaxOpenConns"),
			MaxIdleTime:    conf.GetDuration("databaseMaxIdleTime"),
			ConnectTimeout: conf.GetDuration("databaseConnectTimeout"),
		},
		Email: EmailConfig{
			DefaultFromEmail: *from,
			SendgridAPIKey:   conf.GetString("sendgridAPIKey"),
			AdminEmail:       conf.GetString("adminEmail"),
		},
		Geocoding: GeocodingConfig{
			Provider:     CleanString(conf.GetString("geocodingProvider"), true /* lower */),
			GoogleAPIKey: conf.GetString("googleMapsAPIKey"),
			UserAgent:    conf.GetString("geocodingUserAgent"),
			Timeout:      conf.GetDuration("geocodingTimeout"),
		},
		RateLimit: RateLimitConfig{
			AuthLimit:  conf.GetInt64("authRateLimit"),
			AuthPeriod: conf.GetDuration("authRatePeriod"),
		},
	}
}

// NewTestConfig returns a Config suitable for unit tests, without reading the environment.
func NewTestConfig() *Config {
	return &Config{
		AppName:                   "Attendix",
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		SecretKey:                 "test-secret",
		FrontendBaseURL:           "http://localhost:3000",
		TimeZone:                  "Asia/Kolkata",
		JWTExpirationDelta:        24 * time.Hour,
		JWTRefreshExpirationDelta: 7 * 24 * time.Hour,
		Email: EmailConfig{
			DefaultFromEmail: mail.Address{Name: "Attendix", Address: "noreply@localhost"},
		},
		RateLimit: RateLimitConfig{AuthLimit: 1000, AuthPeriod: time.Minute},
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("%s[%s] build=%s debug=%t", c.AppName, c.Env, c.Build, c.Debug)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
