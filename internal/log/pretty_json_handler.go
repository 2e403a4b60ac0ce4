package log

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
)

type PrettyJSONHandlerOptions struct {
	slog.HandlerOptions
	PrettyPrint bool
}

// NewPrettyJSONHandler returns a [slog.JSONHandler] which indents every record if PrettyPrint is set.
// Meant for local development only.
func NewPrettyJSONHandler(w io.Writer, opts *PrettyJSONHandlerOptions) slog.Handler {
	if opts == nil {
		opts = &PrettyJSONHandlerOptions{}
	}

	if opts.PrettyPrint {
		w = indentWriter{w}
	}

	return slog.NewJSONHandler(w, &opts.HandlerOptions)
}

// indentWriter relies on the JSONHandler writing each record using a single call to Write.
type indentWriter struct {
	w io.Writer
}

func (iw indentWriter) Write(p []byte) (int, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, p, "", "  "); err != nil {
		return 0, err
	}

	if _, err := iw.w.Write(buf.Bytes()); err != nil {
		return 0, err
	}

	return len(p), nil
}
