package core

//config.go

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultPort — порт по умолчанию, если PORT не задан.
const DefaultPort = 4000

// Config определяет настройки приложения (OWASP A05: Security Misconfiguration)
type Config struct {
	AppName string `validate:"required"`
	Port    int    `validate:"min=1,max=65535"`
	Env     string `validate:"oneof=dev staging prod test"` // dev|staging|prod|test

	// Корень статики (сборка фронтенда) и шаблон документа внутри него
	StaticDir string `validate:"required"`
	IndexFile string `validate:"required,excludesall=/"`

	LogDir string // Каталог для ежедневных логов; пусто — только stdout
	DBDSN  string // DSN MySQL; пусто — хранилище в памяти
	Secure bool   // Включает HTTPS и связанные настройки безопасности

	// IP/CIDR обратных прокси; пусто — X-Forwarded-* разбирает chi RealIP
	TrustedProxies []string

	CSRFKey string `validate:"required"`

	ShutdownTimeout   time.Duration `validate:"gt=0"`
	ReadHeaderTimeout time.Duration `validate:"gt=0"`
	ReadTimeout       time.Duration `validate:"gt=0"`
	WriteTimeout      time.Duration `validate:"gt=0"`
	IdleTimeout       time.Duration `validate:"gt=0"`
	RequestTimeout    time.Duration `validate:"gte=0"` // 0 — без таймаута обработки
}

var configValidator = validator.New()

// Addr возвращает адрес для http.Server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// IsProd — продакшен-среда.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

// Load загружает конфигурацию из переменных окружения с значениями по умолчанию (OWASP A05)
func Load() (Config, error) {
	port, err := getEnvInt("PORT", DefaultPort)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:           getEnv("APP_NAME", "cspnonce"),
		Port:              port,
		Env:               getEnv("APP_ENV", "dev"),
		StaticDir:         getEnv("STATIC_DIR", "web/dist"),
		IndexFile:         getEnv("INDEX_FILE", "index.html"),
		LogDir:            getEnv("LOG_DIR", ""),
		TrustedProxies:    getEnvList("TRUSTED_PROXIES"),
		DBDSN:             getEnv("DB_DSN", ""),
		CSRFKey:           getEnv("CSRF_KEY", ""),
		Secure:            getEnv("SECURE", "") == "true",
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		ReadHeaderTimeout: getEnvDuration("READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       getEnvDuration("READ_TIMEOUT", 10*time.Second),
		WriteTimeout:      getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
	}

	if cfg.CSRFKey == "" {
		if cfg.IsProd() {
			return Config{}, fmt.Errorf("CSRF_KEY обязателен в продакшене")
		}
		key, err := generateRandomKey()
		if err != nil {
			return Config{}, err
		}
		cfg.CSRFKey = key
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет конфигурацию по тегам validate.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("неверная конфигурация: %w", err)
	}
	if c.IsProd() && len(c.CSRFKey) < 32 {
		return fmt.Errorf("неверная конфигурация: CSRF_KEY короче 32 символов в продакшене")
	}
	return nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getEnvInt(key string, def int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("неверное значение %s=%q: %w", key, val, err)
	}
	return n, nil
}

// getEnvList разбирает список через запятую; пусто — nil.
func getEnvList(key string) []string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvDuration возвращает значение длительности из переменной окружения или значение по умолчанию
func getEnvDuration(key string, def time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		LogWarn("Неверный формат длительности", map[string]interface{}{"key": key, "value": val, "error": err.Error()})
		return def
	}
	return d
}

// generateRandomKey создаёт случайный 32-байтовый ключ для CSRF в формате base64
func generateRandomKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("генерация CSRF-ключа: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
