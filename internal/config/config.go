// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// NoteValidationMode はノートのサーバーサイドバリデーションの動作モード。
type NoteValidationMode string

const (
	// NoteValidationLenient はバリデーションを行わないモード。
	// 空のタイトル・本文も受理する（オリジナルの挙動に合わせたデフォルト）。
	NoteValidationLenient NoteValidationMode = "lenient"
	// NoteValidationStrict は空白のみのタイトル・本文を拒否し、
	// 最大長を強制するモード。
	NoteValidationStrict NoteValidationMode = "strict"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURL  string

	// Session
	SessionSecret string
	SessionMaxAge int

	// Note validation
	NoteValidation    NoteValidationMode
	NoteTitleMaxLen   int
	NoteContentMaxLen int

	// Rate Limit（req/min/user）
	RateLimitGeneral   int
	RateLimitNoteWrite int

	// Server
	ServerPort  string
	BaseURL     string
	FrontendURL string

	// Cookie
	CookieSecure   bool
	CookieDomain   string
	CookieSameSite http.SameSite

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogFormat string // "json" または "text"
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envファイルがあれば先に読み込む（ローカル開発用）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	// .envが無い場合のエラーは無視する
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	required := []struct {
		name string
		dst  *string
	}{
		{"DATABASE_URL", &cfg.DatabaseURL},
		{"GOOGLE_CLIENT_ID", &cfg.GoogleClientID},
		{"GOOGLE_CLIENT_SECRET", &cfg.GoogleClientSecret},
		{"GOOGLE_REDIRECT_URL", &cfg.GoogleRedirectURL},
		{"GITHUB_CLIENT_ID", &cfg.GitHubClientID},
		{"GITHUB_CLIENT_SECRET", &cfg.GitHubClientSecret},
		{"GITHUB_REDIRECT_URL", &cfg.GitHubRedirectURL},
		{"SESSION_SECRET", &cfg.SessionSecret},
		{"BASE_URL", &cfg.BaseURL},
		{"FRONTEND_URL", &cfg.FrontendURL},
	}
	for _, r := range required {
		*r.dst = os.Getenv(r.name)
		if *r.dst == "" {
			missing = append(missing, r.name)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitNoteWrite = getEnvInt("RATE_LIMIT_NOTE_WRITE", 30)
	cfg.NoteTitleMaxLen = getEnvInt("NOTE_TITLE_MAX_LEN", 200)
	cfg.NoteContentMaxLen = getEnvInt("NOTE_CONTENT_MAX_LEN", 50000)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", cfg.FrontendURL)
	cfg.LogFormat = getEnvString("LOG_FORMAT", "json")

	mode := NoteValidationMode(getEnvString("NOTE_VALIDATION", string(NoteValidationLenient)))
	if mode != NoteValidationLenient && mode != NoteValidationStrict {
		return nil, fmt.Errorf("invalid NOTE_VALIDATION: %q (want lenient or strict)", mode)
	}
	cfg.NoteValidation = mode

	sameSite, err := parseSameSite(getEnvString("COOKIE_SAME_SITE", "lax"))
	if err != nil {
		return nil, err
	}
	// SameSite=Noneのクロスサイト送信にはSecure属性が必須（ブラウザ仕様）
	if sameSite == http.SameSiteNoneMode && !cfg.CookieSecure {
		return nil, fmt.Errorf("COOKIE_SAME_SITE=none requires an https BASE_URL")
	}
	cfg.CookieSameSite = sameSite

	return cfg, nil
}

// parseSameSite はCOOKIE_SAME_SITEの値をhttp.SameSiteに変換する。
func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid COOKIE_SAME_SITE: %q (want lax, strict or none)", v)
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
