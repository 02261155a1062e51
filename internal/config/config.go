package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort     string
	DatabaseDSN  string
	JWTSecret    string
	SessionTTL   time.Duration // validade do token do operador
	CORSOrigins  string
	RedisAddress string        // vazio: trava em memória
	CaseLockTTL  time.Duration // validade da trava por caso
	CatalogPath  string        // tipos de produto (YAML)
	LogLevel     string
}

const defaultDSN = "host=localhost user=postgres password=postgres dbname=alinhadores port=5432 sslmode=disable"

// FromEnv lê a configuração sem exigir JWT_SECRET (ferramentas de linha de comando).
func FromEnv() *Config {
	// .env é opcional
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:  getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		SessionTTL:   time.Duration(getEnvInt("SESSION_TTL_HOURS", 12)) * time.Hour,
		CORSOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		RedisAddress: getEnv("REDIS_ADDRESS", ""),
		CaseLockTTL:  time.Duration(getEnvInt("CASE_LOCK_TTL_SECONDS", 30)) * time.Second,
		CatalogPath:  getEnv("CATALOG_PATH", "./catalog.yaml"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	SetLogLevel(cfg.LogLevel)
	return cfg
}

func Load() *Config {
	cfg := FromEnv()

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET não definido! Obrigatório em produção.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET deve ter pelo menos 32 caracteres.")
	}
	if cfg.DatabaseDSN == defaultDSN {
		logg.Warn("DATABASE_DSN com valor padrão; defina a conexão do Postgres em produção")
	}
	if cfg.RedisAddress == "" {
		logg.Warn("REDIS_ADDRESS vazio; bloqueio por caso apenas dentro do processo")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logg.WithField("key", key).Warnf("valor inválido %q, usando %d", v, def)
		return def
	}
	return n
}
