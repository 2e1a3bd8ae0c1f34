// Package clog formats apex/log entries as single text lines for the mcbund
// daemon and the client utilities.
package clog

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/apex/log"
)

// Handler writes "LEVEL time message key=value ..." with fields sorted by name.
type Handler struct {
	mu     sync.Mutex
	writer io.Writer
	now    func() time.Time
}

var levelNames = [...]string{
	log.DebugLevel: "DEBUG",
	log.InfoLevel:  "INFO",
	log.WarnLevel:  "NOTICE",
	log.ErrorLevel: "ERROR",
	log.FatalLevel: "FATAL",
}

func NewHandler(w io.Writer) *Handler {
	return &Handler{writer: w, now: time.Now}
}

func (h *Handler) SetOutput(w io.Writer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writer = w
}

func (h *Handler) HandleLog(e *log.Entry) error {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b bytes.Buffer
	_, _ = fmt.Fprintf(&b, "%6s %s %-25s", levelNames[e.Level], h.now().Format(time.DateTime), e.Message)
	for _, name := range names {
		_, _ = fmt.Fprintf(&b, " %s=%v", name, e.Fields[name])
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.writer, b.String())
	return err
}

// Setup installs a Handler on w as the global apex handler at the named level.
// An empty level is info.
func Setup(w io.Writer, level string) (*Handler, error) {
	lvl := log.InfoLevel
	if level != "" {
		var err error
		if lvl, err = log.ParseLevel(level); err != nil {
			return nil, err
		}
	}

	h := NewHandler(w)
	log.SetHandler(h)
	log.SetLevel(lvl)
	return h, nil
}
