package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New 按运行模式构建控制台日志，release 模式关闭颜色并提升到 info 级别。
func New(mode string) zerolog.Logger {
	return newWithWriter(mode, os.Stdout)
}

func newWithWriter(mode string, out io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    mode == "release",
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Str("mode", mode).
		Logger()

	if mode != "release" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return logger
}
