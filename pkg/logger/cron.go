package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// CronLogger adapts Logger to the robfig/cron Logger interface.
type CronLogger struct {
	log *Logger
}

func NewCronLogger(log *Logger) CronLogger {
	return CronLogger{log: log}
}

// Info logs routine scheduler messages at debug level; cron is chatty.
func (c CronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, kvFields(keysAndValues)...)
}

func (c CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append(kvFields(keysAndValues), ErrorField(err))...)
}

func kvFields(keysAndValues []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, zap.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1]))
	}
	return fields
}
