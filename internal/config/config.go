package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const defaultSecret = "your-secret-key-change-in-production"

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	JWTExpiry   time.Duration
	Port        string
	SiteName    string
	SiteUrl     string
	CORSOrigin  string

	TMDBAPIKey  string
	TMDBBaseURL string
	OMDbAPIKey  string
	OMDbBaseURL string

	// ImportDelay 批量导入片单时每条之间的间隔
	ImportDelay time.Duration
}

// fileConfig 可选的 TOML 配置文件结构（环境变量优先级更高）
type fileConfig struct {
	Env        string `toml:"env"`
	Port       string `toml:"port"`
	SiteName   string `toml:"site_name"`
	SiteUrl    string `toml:"site_url"`
	CORSOrigin string `toml:"cors_origin"`

	Database struct {
		User     string `toml:"user"`
		Password string `toml:"password"`
		Host     string `toml:"host"`
		Port     string `toml:"port"`
		Name     string `toml:"name"`
		SSLMode  string `toml:"sslmode"`
	} `toml:"database"`

	TMDB struct {
		APIKey  string `toml:"api_key"`
		BaseURL string `toml:"base_url"`
	} `toml:"tmdb"`

	OMDb struct {
		APIKey  string `toml:"api_key"`
		BaseURL string `toml:"base_url"`
	} `toml:"omdb"`

	JWTExpiryHours int `toml:"jwt_expiry_hours"`
	ImportDelayMs  int `toml:"import_delay_ms"`
}

// Load 加载配置
func Load() *Config {
	defaults := map[string]string{}
	if path := os.Getenv("DREADSCALE_CONFIG"); path != "" {
		fc, err := readFile(path)
		if err != nil {
			log.Printf("[Config] 读取配置文件失败，忽略: %v", err)
		} else {
			defaults = fc.asDefaults()
		}
	}

	getEnv := func(key, fallback string) string {
		if value := os.Getenv(key); value != "" {
			return value
		}
		if value, ok := defaults[key]; ok && value != "" {
			return value
		}
		return fallback
	}

	expiryHours, _ := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "72"))
	importDelayMs, err := strconv.Atoi(getEnv("IMPORT_DELAY_MS", "50"))
	if err != nil || importDelayMs < 0 {
		importDelayMs = 50
	}

	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "dreadscale")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", defaultSecret))
	env := getEnv("APP_ENV", "development")

	if env == "production" && appSecret == defaultSecret {
		log.Println("[Config] 【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	return &Config{
		Env:         env,
		AppSecret:   appSecret,
		DatabaseURL: dbURL,
		JWTExpiry:   time.Duration(expiryHours) * time.Hour,
		Port:        getEnv("PORT", "5005"),
		SiteName:    getEnv("SITE_NAME", "DreadScale"),
		SiteUrl:     getEnv("SITE_URL", "http://localhost:5005"),
		CORSOrigin:  getEnv("CORS_ORIGIN", ""),
		TMDBAPIKey:  getEnv("TMDB_API_KEY", ""),
		TMDBBaseURL: getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		OMDbAPIKey:  getEnv("OMDB_API_KEY", ""),
		OMDbBaseURL: getEnv("OMDB_BASE_URL", "https://www.omdbapi.com"),
		ImportDelay: time.Duration(importDelayMs) * time.Millisecond,
	}
}

// Warnings 返回缺失的配置项（缺失时对应功能降级为示例数据/回退数据）
func (c *Config) Warnings() []string {
	var warnings []string
	if c.TMDBAPIKey == "" {
		warnings = append(warnings, "TMDB API key is not configured; showing sample movies")
	}
	if c.OMDbAPIKey == "" {
		warnings = append(warnings, "OMDb API key is not configured; IMDb and Rotten Tomatoes ratings are unavailable")
	}
	return warnings
}

func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("解析 TOML 失败: %w", err)
	}
	return &fc, nil
}

func (fc *fileConfig) asDefaults() map[string]string {
	m := map[string]string{
		"APP_ENV":       fc.Env,
		"PORT":          fc.Port,
		"SITE_NAME":     fc.SiteName,
		"SITE_URL":      fc.SiteUrl,
		"CORS_ORIGIN":   fc.CORSOrigin,
		"DB_USER":       fc.Database.User,
		"DB_PASSWORD":   fc.Database.Password,
		"DB_HOST":       fc.Database.Host,
		"DB_PORT":       fc.Database.Port,
		"DB_NAME":       fc.Database.Name,
		"DB_SSLMODE":    fc.Database.SSLMode,
		"TMDB_API_KEY":  fc.TMDB.APIKey,
		"TMDB_BASE_URL": fc.TMDB.BaseURL,
		"OMDB_API_KEY":  fc.OMDb.APIKey,
		"OMDB_BASE_URL": fc.OMDb.BaseURL,
	}
	if fc.JWTExpiryHours > 0 {
		m["JWT_EXPIRY_HOURS"] = strconv.Itoa(fc.JWTExpiryHours)
	}
	if fc.ImportDelayMs > 0 {
		m["IMPORT_DELAY_MS"] = strconv.Itoa(fc.ImportDelayMs)
	}
	return m
}
