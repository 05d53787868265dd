package core

import (
	"fmt"
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
	ServerConfig struct {
		Host                      string
		Port                      int
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine     string
		Name       string
		User       string
		Password   string
		Host       string
		Port       int
		DisableTLS bool
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (local; default), TEST, QA, PROD
		AppName  string
		Build    string

		SecretKey        []byte
		DefaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string

		// PlatformDomain is the root domain serving the platform itself;
		// the leftmost label in front of it names a tenant.
		PlatformDomain     string
		ReservedSubdomains []string
		// DevPathTenancy enables the /s/{slug} path form of tenant
		// addressing. Browsers do not share cookies across *.localhost
		// siblings, so subdomain tenancy is not testable locally.
		// Must stay off outside DEV/TEST.
		DevPathTenancy   bool
		ImpersonationTTL time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
	}
)

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Darasa")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "w#2cvny0p+fs1z(yyi_4+l%^ia+-97&2h)0$@pa7*xm_jl45u8")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("platformDomain", "darasa.app")
	conf.SetDefault("reservedSubdomains", []string{"www", "api", "app", "mail", "static", "admin"})
	conf.SetDefault("devPathTenancy", false)
	conf.SetDefault("impersonationTTL", 2*time.Hour)
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)

	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverPort", 8000)

	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbName", "darasa")
	conf.SetDefault("dbUser", "")
	conf.SetDefault("dbPassword", "")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", 5432)
	conf.SetDefault("dbDisableTLS", true)

	conf.SetDefault("redisAddr", "localhost:6379")
	conf.SetDefault("redisPassword", "")
	conf.SetDefault("redisDB", 0)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
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

	c := &Config{
		Debug:    conf.GetBool("debug"),
		TestMode: env == "TEST",
		Env:      env,
		AppName:  conf.GetString("appName"),
		Build:    conf.GetString("build"),

		SecretKey:        []byte(conf.GetString("secretKey")),
		DefaultFromEmail: conf.GetString("defaultFromEmail"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),

		PlatformDomain:     conf.GetString("platformDomain"),
		ReservedSubdomains: conf.GetStringSlice("reservedSubdomains"),
		DevPathTenancy:     conf.GetBool("devPathTenancy"),
		ImpersonationTTL:   conf.GetDuration("impersonationTTL"),

		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Port:                      conf.GetInt("serverPort"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:     conf.GetString("dbEngine"),
			Name:       conf.GetString("dbName"),
			User:       conf.GetString("dbUser"),
			Password:   conf.GetString("dbPassword"),
			Host:       conf.GetString("dbHost"),
			Port:       conf.GetInt("dbPort"),
			DisableTLS: conf.GetBool("dbDisableTLS"),
		},
		Redis: RedisConfig{
			Addr:     conf.GetString("redisAddr"),
			Password: conf.GetString("redisPassword"),
			DB:       conf.GetInt("redisDB"),
		},
	}

	// path tenancy is a local-development affordance only
	if !c.IsDev() {
		c.DevPathTenancy = false
	}
	return c
}

func (c *Config) IsDev() bool {
	return c.Env == "DEV" || c.Env == "TEST"
}

func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) FromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.DefaultFromEmail); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}

func (dc DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", dc.Host, dc.Port)
}
