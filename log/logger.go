package log

import (
	"go.uber.org/zap"
)

var logger = zap.Must(zap.NewProduction())

// 注入外部日志器（如宿主应用已配置的zap实例），传nil则保持默认
func SetLogger(lg *zap.Logger) {
	if lg != nil {
		logger = lg
	}
}

func GetLogger() *zap.Logger {
	return logger
}

func Debug(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}

func Sync() error {
	return logger.Sync()
}
