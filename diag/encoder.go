package diag

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	// MaxLine is the hard cap of one log line, trailing newline included.
	MaxLine = 128

	// FatalPrefix starts every fatal line.
	FatalPrefix = "stl-error:: "

	threadKey  = "thread"
	timeLayout = "2006-01-02 15:04:05.000000"
)

var pool = buffer.NewPool()

// lineEncoder renders "<date> <time>.<usec> [<thread>] <message>\n".
// Structured fields other than the thread name are not rendered; the embedded
// encoder only exists to satisfy zapcore.ObjectEncoder for With() calls.
type lineEncoder struct {
	zapcore.Encoder
}

func newLineEncoder() *lineEncoder {
	return &lineEncoder{Encoder: zapcore.NewConsoleEncoder(zapcore.EncoderConfig{})}
}

func (e *lineEncoder) Clone() zapcore.Encoder {
	return &lineEncoder{Encoder: e.Encoder.Clone()}
}

func (e *lineEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf := pool.Get()

	if ent.Level >= zapcore.FatalLevel {
		buf.AppendString(FatalPrefix)
		buf.AppendString(strings.TrimRight(ent.Message, "\n"))
		buf.AppendByte('\n')
		return buf, nil
	}

	var b strings.Builder
	b.WriteString(ent.Time.Format(timeLayout))
	b.WriteString(" [")
	b.WriteString(threadName(fields))
	b.WriteString("] ")
	b.WriteString(flatten(ent.Message))

	buf.AppendString(truncate(b.String(), MaxLine-1))
	buf.AppendByte('\n')
	return buf, nil
}

func threadName(fields []zapcore.Field) string {
	for _, f := range fields {
		if f.Key == threadKey && f.Type == zapcore.StringType {
			return f.String
		}
	}
	return ""
}

// flatten keeps a message on one line.
func flatten(msg string) string {
	msg = strings.TrimRight(msg, "\r\n")
	if strings.ContainsAny(msg, "\r\n") {
		msg = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(msg)
	}
	return msg
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
