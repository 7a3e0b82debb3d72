// Package logger はslogロガーのセットアップを提供する。
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// Setup は指定フォーマットのslog.Loggerを生成して返す。
// formatが"text"の場合はローカル開発向けのtintハンドラー、
// それ以外はJSON構造化ログを出力する。
func Setup(w io.Writer, format string) *slog.Logger {
	var handler slog.Handler
	if format == "text" {
		handler = tint.NewHandler(w, &tint.Options{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return slog.New(handler)
}

// SetupDefault はロガーを生成してグローバルロガーとして設定する。
// writerがnilの場合はos.Stdoutに出力する。
func SetupDefault(w io.Writer, format string) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(Setup(w, format))
}
