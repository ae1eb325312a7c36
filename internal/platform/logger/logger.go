// Package logger は JSON 形式の構造化ログを提供します。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel は設定値をログレベルに変換します。未知の値は Info として扱います。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// New は w に JSON を出力する slog.Logger を生成します。w が nil の場合は標準出力に書き込みます。
func New(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With(slog.String("service", "planner-assistant"))
}

// SetupDefault は生成したロガーをグローバルロガーとしても設定します。
func SetupDefault(w io.Writer, level string) *slog.Logger {
	l := New(w, level)
	slog.SetDefault(l)
	return l
}
