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

// Conf holds the application configuration, loaded once at startup.
var Conf *Config

type (
	ServerConfig struct {
		Host               string
		Port               string
		BaseURL            string // public URL used to build file URLs
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
	}

	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string

		SecretKey     string // JWT signing
		EncryptionKey string // password-at-rest encryption

		Server   ServerConfig
		Database DatabaseConfig

		UploadsDir       string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func init() {
	Conf = loadConfig()
}

func loadConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Bossmaker")
	v.SetDefault("secretKey", "o0p$-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("encryptionKey", "12345678901234567890123456789012")
	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("serverBaseURL", "http://localhost:8000")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", "5432")
	v.SetDefault("databaseUser", "bossmaker")
	v.SetDefault("databasePassword", "bossmaker")
	v.SetDefault("databaseName", "bossmaker")
	v.SetDefault("databaseDisableTLS", true)
	v.SetDefault("uploadsDir", "uploads")
	v.SetDefault("defaultFromEmail", "noreply@localhost")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:           strings.ToLower(env),
		Debug:         v.GetBool("debug"),
		TestMode:      env == "TEST",
		AppName:       v.GetString("appName"),
		Build:         v.GetString("build"),
		SecretKey:     v.GetString("secretKey"),
		EncryptionKey: v.GetString("encryptionKey"),
		Server: ServerConfig{
			Host:               v.GetString("serverHost"),
			Port:               v.GetString("serverPort"),
			BaseURL:            strings.TrimRight(v.GetString("serverBaseURL"), "/"),
			JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("databaseEngine"),
			Host:          v.GetString("databaseHost"),
			Port:          v.GetString("databasePort"),
			User:          v.GetString("databaseUser"),
			Password:      v.GetString("databasePassword"),
			AdminUser:     v.GetString("databaseAdminUser"),
			AdminPassword: v.GetString("databaseAdminPassword"),
			Name:          v.GetString("databaseName"),
			DisableTLS:    v.GetBool("databaseDisableTLS"),
		},
		UploadsDir:     v.GetString("uploadsDir"),
		SendgridApiKey: v.GetString("sendgridApiKey"),
		RollbarToken:   v.GetString("rollbarToken"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("appName"),
			Address: v.GetString("defaultFromEmail"),
		},
	}
	if conf.TestMode {
		conf.Debug = true
	}
	return conf
}

// FileURL builds the public URL of an uploaded file.
func (c *Config) FileURL(folder, filename string) string {
	if filename == "" {
		return ""
	}
	return fmt.Sprintf("%s/uploads/%s/%s", c.Server.BaseURL, folder, filename)
}
