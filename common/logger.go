package common

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type LogLevel int32

const (
	DEBUG_INFO_DETAIL LogLevel = 1
	DEBUG_INFO                 = 2
	CACHE_OP_INFO              = 4
	DEBUGGING                  = 8
	INFO                       = 16
	WARN                       = 32
	ERROR                      = 64
	FATAL                      = 128
)

var LogLevelSetting LogLevel = WARN | ERROR | FATAL

var logger *zap.SugaredLogger

func init() {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	zl, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	logger = zl.Sugar()
}

func ShPrintf(logLevel LogLevel, fmtStl string, a ...interface{}) {
	if logLevel&LogLevelSetting == 0 {
		return
	}

	msg := strings.TrimRight(fmt.Sprintf(fmtStl, a...), "\n")
	switch {
	case logLevel >= ERROR:
		logger.Error(msg)
	case logLevel >= WARN:
		logger.Warn(msg)
	case logLevel >= INFO:
		logger.Info(msg)
	default:
		logger.Debug(msg)
	}
}
