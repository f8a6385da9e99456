package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

// consoleHandler renders human-readable single line records for interactive use.
type consoleHandler struct {
	mu      *sync.Mutex
	writer  io.Writer
	level   slog.Leveler
	color   bool
	attrs   []slog.Attr
	groups  []string
	timeFmt string
}

func newConsoleHandler(writer io.Writer, level slog.Leveler) *consoleHandler {
	color := false
	if f, ok := writer.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &consoleHandler{
		mu:      &sync.Mutex{},
		writer:  writer,
		level:   level,
		color:   color,
		timeFmt: "15:04:05",
	}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder

	if !record.Time.IsZero() {
		h.dim(&b, record.Time.Format(h.timeFmt))
		b.WriteByte(' ')
	}
	h.writeLevel(&b, record.Level)
	b.WriteByte(' ')
	b.WriteString(record.Message)

	fields := make(map[string]string)
	for _, attr := range h.attrs {
		collectAttr(fields, h.groups, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		collectAttr(fields, h.groups, attr)
		return true
	})
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		b.WriteByte(' ')
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, key+"="+fields[key])
		}
		h.dim(&b, strings.Join(parts, " "))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func (h *consoleHandler) writeLevel(b *strings.Builder, level slog.Level) {
	label := strings.ToUpper(level.String())
	if !h.color {
		b.WriteString(label)
		return
	}
	switch {
	case level >= slog.LevelError:
		b.WriteString(ansiRed + label + ansiReset)
	case level >= slog.LevelWarn:
		b.WriteString(ansiYellow + label + ansiReset)
	case level <= slog.LevelDebug:
		b.WriteString(ansiDim + label + ansiReset)
	default:
		b.WriteString(ansiCyan + label + ansiReset)
	}
}

func (h *consoleHandler) dim(b *strings.Builder, text string) {
	if h.color {
		b.WriteString(ansiDim + text + ansiReset)
		return
	}
	b.WriteString(text)
}

func collectAttr(fields map[string]string, groups []string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		nested := groups
		if attr.Key != "" {
			nested = append(append([]string{}, groups...), attr.Key)
		}
		for _, child := range attr.Value.Group() {
			collectAttr(fields, nested, child)
		}
		return
	}
	if attr.Key == "" {
		return
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	fields[key] = formatValue(attr.Value)
}

func formatValue(value slog.Value) string {
	switch value.Kind() {
	case slog.KindString:
		text := value.String()
		if strings.ContainsAny(text, " \t") {
			return fmt.Sprintf("%q", text)
		}
		return text
	case slog.KindDuration:
		return value.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return value.Time().Format(time.RFC3339)
	default:
		return value.String()
	}
}
