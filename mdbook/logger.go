package mdbook

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	shortcodes "github.com/riverfjs/shortcodes-go"
)

// Logger 全局日志记录器，默认不输出
var Logger = zap.NewNop()

// SetLogger 设置自定义日志记录器
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	Logger = logger
}

// LogDiagnostic 记录一条诊断；error 级别的诊断对应失败的文档
func LogDiagnostic(log *zap.Logger, d shortcodes.Diagnostic) {
	level := zapcore.WarnLevel
	if d.Severity == shortcodes.SeverityError {
		level = zapcore.ErrorLevel
	}
	if ce := log.Check(level, d.Message); ce != nil {
		ce.Write(
			zap.String("document", d.DocumentID),
			zap.Int("line", d.Line),
			zap.Int("column", d.Column),
			zap.Stringer("kind", d.Kind),
		)
	}
}
