package logger

import (
	"fmt"

	"go.uber.org/zap"
)

var (
	base *zap.Logger

	serviceName = "stock_trader"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Init builds the process logger. Call once from main before anything logs.
func Init() error {
	l, err := zap.NewProduction(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	base = l
	return nil
}

// ReplaceLogger swaps the process logger, for tests.
func ReplaceLogger(l *zap.Logger) {
	base = l
}

func logger() *zap.Logger {
	if base == nil {
		panic("logger is not initialized")
	}
	return base.With(zap.String("service", serviceName))
}

func Debug(format string, args ...interface{}) {
	logger().Debug(fmt.Sprintf(format, args...))
}

func Info(format string, args ...interface{}) {
	logger().Info(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	logger().Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	logger().Fatal(fmt.Sprintf(format, args...))
}
