package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DevJWTSecret se usa solo fuera de producción cuando JWT_SECRET no está definido.
const DevJWTSecret = "dev-secret-change-me-dev-secret-change-me"

// Config reúne la configuración del servidor y del CLI.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	Env  string `env:"ENV" envDefault:"development"`

	DB DBConfig

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	UploadMaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`
	UploadBaseURL  string `env:"UPLOAD_BASE_URL" envDefault:"/uploads"`

	ChromePath   string        `env:"CHROME_PATH"`
	PrintTimeout time.Duration `env:"PRINT_TIMEOUT" envDefault:"20s"`
	// RegistroLine es la línea de fichero/CUIT del pie de la tarjeta.
	RegistroLine string `env:"CARD_REGISTRO_LINE"`

	// RateLimit es el máximo de requests por minuto e IP en /api; 0 lo desactiva.
	RateLimit      int `env:"RATE_LIMIT" envDefault:"300"`
	PrintRateLimit int `env:"PRINT_RATE_LIMIT" envDefault:"30"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://127.0.0.1:8080"`
}

// DBConfig describe la conexión a la base de datos.
type DBConfig struct {
	Driver     string `env:"DB_DRIVER" envDefault:"mysql"`
	User       string `env:"DB_USER"`
	Pass       string `env:"DB_PASS"`
	Host       string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port       string `env:"DB_PORT" envDefault:"3306"`
	Name       string `env:"DB_NAME" envDefault:"credenciales"`
	Path       string `env:"DB_PATH" envDefault:"credenciales.db"`
	SkipSchema bool   `env:"DB_SKIP_SCHEMA"`
}

// Load lee .env (si existe) y luego las variables de entorno.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv parsea la configuración sin tocar archivos .env.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = DevJWTSecret
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	e := strings.ToLower(c.Env)
	return e == "production" || e == "prod"
}

// Validate rechaza configuraciones inseguras o incompletas.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set in production environment")
	}
	if c.IsProduction() && c.JWTSecret == DevJWTSecret {
		return errors.New("JWT_SECRET must not use the development default in production")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long (current: %d)", len(c.JWTSecret))
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("invalid JWT_TTL %s", c.JWTTTL)
	}
	switch c.DB.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("invalid UPLOAD_MAX_BYTES %d", c.UploadMaxBytes)
	}
	return nil
}
