package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// newJSONHandler writes one object per line for log shippers. Id lists are
// written in full alongside their length.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	}
	return slog.NewJSONHandler(w, &opts)
}

func replaceJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch attr.Key {
		case slog.TimeKey:
			attr.Key = "ts"
			if attr.Value.Kind() == slog.KindTime {
				attr.Value = slog.StringValue(attr.Value.Time().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
			}
			return attr
		case slog.LevelKey:
			attr.Key = "level"
			attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			return attr
		case slog.SourceKey:
			if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
				attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
			}
			return attr
		case FieldRelease:
			return releaseAttr(attr)
		}
	}
	switch attr.Value.Kind() {
	case slog.KindDuration:
		attr.Value = slog.StringValue(attr.Value.Duration().Round(time.Millisecond).String())
	case slog.KindAny:
		if ids, ok := attr.Value.Any().(idList); ok {
			attr.Value = slog.GroupValue(
				slog.Int("count", len(ids)),
				slog.Any("ids", []string(ids)),
			)
		}
	}
	return attr
}

// releaseAttr splits a "media-3" label into kind and number so shippers can
// filter on either.
func releaseAttr(attr slog.Attr) slog.Attr {
	label := attr.Value.String()
	i := strings.LastIndexByte(label, '-')
	if i <= 0 || i == len(label)-1 {
		return attr
	}
	return slog.Group(attr.Key,
		slog.String("label", label),
		slog.String("kind", label[:i]),
		slog.String("id", label[i+1:]),
	)
}
