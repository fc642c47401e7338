// Package logger はJSON構造化ログのセットアップを提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// writerが指定された場合はそのwriterに出力する。
func Setup(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerが指定された場合はそのwriterに出力する。
// 通常はos.Stderrを渡すことを想定している（標準出力はフィード表示に使うため）。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logger := Setup(w)
	slog.SetDefault(logger)
}

// levelFromEnv は環境変数MEMEDECK_LOG_LEVELからログレベルを決定する。
// 未設定または未知の値の場合はInfoを返す。
func levelFromEnv() slog.Level {
	switch os.Getenv("MEMEDECK_LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
