package logger

import (
	"time"

	"go.uber.org/zap"
)

// maxStatementLength caps logged SQL so a bulk statement cannot flood the output.
const maxStatementLength = 1000

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// elapsedFields reports a storage round trip in both duration and millisecond form.
func elapsedFields(elapsed time.Duration) []zap.Field {
	return []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Float64("elapsed_ms", float64(elapsed.Nanoseconds())/1e6),
	}
}

// isSlow reports whether elapsed crossed threshold. A zero threshold disables the check.
func isSlow(elapsed, threshold time.Duration) bool {
	return threshold != 0 && elapsed > threshold
}

func statementFields(sql string) []zap.Field {
	if len(sql) <= maxStatementLength {
		return []zap.Field{zap.String("sql", sql)}
	}
	return []zap.Field{zap.String("sql", sql[:maxStatementLength]+"..."), zap.Bool("sql_truncated", true)}
}
