package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Режимы хранения.
const (
	ModeDatabase = "database"
	ModeSQLite   = "sqlite"
	ModeFile     = "file"
	ModeMemory   = "memory"
)

// Config хранит конфигурацию сервера
type Config struct {
	ServerAddress   string `json:"server_address"`
	GRPCAddress     string `json:"grpc_address"`
	DatabaseDSN     string `json:"database_dsn"`
	SQLitePath      string `json:"sqlite_path"`
	FileStoragePath string `json:"file_storage_path"`
	AllowedOrigin   string `json:"allowed_origin"`
	CodeLength      int    `json:"code_length"`
	CodeAttempts    int    `json:"code_attempts"`
	EnableHTTPS     bool   `json:"enable_https"`
	TLSCertPath     string `json:"tls_cert_path"`
	TLSKeyPath      string `json:"tls_key_path"`

	MobileMarkers           []string      `json:"mobile_markers"`
	CrawlerMarkers          []string      `json:"crawler_markers"`
	MarketplaceMarker       string        `json:"marketplace_marker"`
	DeepLinkURL             string        `json:"deep_link_url"`
	DeepLinkWebURL          string        `json:"deep_link_web_url"`
	OverrideURL             string        `json:"override_url"`
	VirtualLinkURL          string        `json:"virtual_link_url"`
	InterstitialRefresh     time.Duration `json:"interstitial_refresh"`
	InterstitialScriptDelay time.Duration `json:"interstitial_script_delay"`

	Mode string `json:"-"`
}

var defaults = map[string]any{
	"server_address":            "localhost:8080",
	"grpc_address":              "",
	"database_dsn":              "",
	"sqlite_path":               "urls.db",
	"file_storage_path":         "",
	"allowed_origin":            "http://localhost:3000",
	"code_length":               6,
	"code_attempts":             5,
	"enable_https":              false,
	"tls_cert_path":             "cert.pem",
	"tls_key_path":              "key.pem",
	"mobile_markers":            "Mobile,Android,iPhone",
	"crawler_markers":           "facebookexternalhit",
	"marketplace_marker":        "shopee.vn",
	"deep_link_url":             "shopeevn://home?navRoute=eyJwYXRoc",
	"deep_link_web_url":         "https://shopee.vn/universal-link/m/shopee-tech-zone",
	"override_url":              "https://www.youtube.com/results?search_query=deploy+backend+python+free",
	"virtual_link_url":          "https://example.com/virtual-link",
	"interstitial_refresh":      3 * time.Second,
	"interstitial_script_delay": 8 * time.Second,
}

// Load собирает конфигурацию: значения по умолчанию, JSON-файл (-c или CONFIG),
// переменные окружения, затем явно заданные флаги.
func Load(args []string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	fs := pflag.NewFlagSet("shortener", pflag.ContinueOnError)
	fs.StringP("config", "c", "", "path to JSON config file")
	fs.StringP("server_address", "a", "", "HTTP server address")
	fs.StringP("grpc_address", "g", "", "gRPC server address, empty disables gRPC")
	fs.StringP("database_dsn", "d", "", "PostgreSQL DSN")
	fs.StringP("sqlite_path", "l", "", "SQLite file or libsql URL")
	fs.StringP("file_storage_path", "f", "", "journal file for the in-memory store")
	fs.StringP("allowed_origin", "o", "", "CORS allowed origin")
	fs.Int("code_length", 0, "short code length")
	fs.Int("code_attempts", 0, "short code generation attempts")
	fs.BoolP("enable_https", "s", false, "enable HTTPS")
	fs.String("tls_cert_path", "", "path to TLS certificate")
	fs.String("tls_key_path", "", "path to TLS key")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Переменные окружения: SERVER_ADDRESS, DATABASE_DSN и т.д.
	// Пустое значение тоже учитывается: SQLITE_PATH= отключает SQLite.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	configPath, _ := fs.GetString("config")
	if configPath == "" {
		configPath = v.GetString("config")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", configPath, err)
		}
	}

	// Флаги имеют высший приоритет, но только если заданы явно
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name != "config" {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	cfg := &Config{
		ServerAddress:           v.GetString("server_address"),
		GRPCAddress:             v.GetString("grpc_address"),
		DatabaseDSN:             v.GetString("database_dsn"),
		SQLitePath:              v.GetString("sqlite_path"),
		FileStoragePath:         v.GetString("file_storage_path"),
		AllowedOrigin:           v.GetString("allowed_origin"),
		CodeLength:              v.GetInt("code_length"),
		CodeAttempts:            v.GetInt("code_attempts"),
		EnableHTTPS:             v.GetBool("enable_https"),
		TLSCertPath:             v.GetString("tls_cert_path"),
		TLSKeyPath:              v.GetString("tls_key_path"),
		MobileMarkers:           splitList(v.Get("mobile_markers")),
		CrawlerMarkers:          splitList(v.Get("crawler_markers")),
		MarketplaceMarker:       v.GetString("marketplace_marker"),
		DeepLinkURL:             v.GetString("deep_link_url"),
		DeepLinkWebURL:          v.GetString("deep_link_web_url"),
		OverrideURL:             v.GetString("override_url"),
		VirtualLinkURL:          v.GetString("virtual_link_url"),
		InterstitialRefresh:     v.GetDuration("interstitial_refresh"),
		InterstitialScriptDelay: v.GetDuration("interstitial_script_delay"),
	}

	// Определяем режим работы
	switch {
	case cfg.DatabaseDSN != "":
		cfg.Mode = ModeDatabase
	case cfg.SQLitePath != "":
		cfg.Mode = ModeSQLite
	case cfg.FileStoragePath != "":
		cfg.Mode = ModeFile
	default:
		cfg.Mode = ModeMemory
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList принимает строку "a,b,c" из флага или окружения либо массив из JSON-файла.
func splitList(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []string:
		parts = v
	case []any:
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate проверяет корректность конфигурации
func (cfg *Config) Validate() error {
	if cfg.ServerAddress == "" {
		return errors.New("адрес сервера не может быть пустым")
	}
	if cfg.AllowedOrigin == "" {
		return errors.New("allowed_origin не может быть пустым")
	}
	if cfg.CodeLength <= 0 {
		return fmt.Errorf("code_length должен быть положительным, получено %d", cfg.CodeLength)
	}
	if cfg.CodeAttempts <= 0 {
		return fmt.Errorf("code_attempts должен быть положительным, получено %d", cfg.CodeAttempts)
	}
	if cfg.EnableHTTPS && (cfg.TLSCertPath == "" || cfg.TLSKeyPath == "") {
		return errors.New("для HTTPS нужны tls_cert_path и tls_key_path")
	}
	if cfg.InterstitialRefresh < 0 || cfg.InterstitialScriptDelay < 0 {
		return errors.New("задержки промежуточной страницы не могут быть отрицательными")
	}
	return nil
}
