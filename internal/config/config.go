package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// API
	APIBaseURL   string
	APITimeout   time.Duration
	APIRateLimit int // APIリクエストのレート（req/min）
	APIRateBurst int

	// Token
	TokenPath string

	// Feed
	ScrollThresholdPx int // 残りスクロール距離がこの値を下回ると次ページを読み込む

	// Picture
	PictureMaxSize int64

	// Mock API server
	MockServerPort string
}

// defaultAPIBaseURL はAPIのデフォルト接続先。
// ローカルのモックAPIサーバー（mockapiコマンド）と一致させている。
const defaultAPIBaseURL = "http://localhost:8080/api"

// Load は環境変数からConfigを読み込む。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.APIBaseURL = getEnvString("MEMEDECK_API_BASE_URL", defaultAPIBaseURL)
	cfg.APITimeout = getEnvDuration("MEMEDECK_API_TIMEOUT", 10*time.Second)
	cfg.APIRateLimit = getEnvInt("MEMEDECK_API_RATE_LIMIT", 120)
	cfg.APIRateBurst = getEnvInt("MEMEDECK_API_RATE_BURST", 30)
	cfg.ScrollThresholdPx = getEnvInt("MEMEDECK_SCROLL_THRESHOLD_PX", 100)
	cfg.PictureMaxSize = getEnvInt64("MEMEDECK_PICTURE_MAX_SIZE", 5242880)
	cfg.MockServerPort = getEnvString("MEMEDECK_MOCK_PORT", "8080")

	tokenPath := os.Getenv("MEMEDECK_TOKEN_PATH")
	if tokenPath == "" {
		defaultPath, err := DefaultTokenPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve default token path: %w", err)
		}
		tokenPath = defaultPath
	}
	cfg.TokenPath = tokenPath

	return cfg, nil
}

// DefaultTokenPath はトークン永続化先のデフォルトパスを返す。
// ユーザー設定ディレクトリ配下のアプリケーション専用ファイルを使用する。
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "memedeck", "token"), nil
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

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
