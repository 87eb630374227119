package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ResponseTransport adapts an http.ResponseWriter to page.Transport. Raw
// header lines are translated into a status code and response headers, and
// the body is buffered until Flush.
type ResponseTransport struct {
	w       http.ResponseWriter
	status  int
	added   []string
	body    bytes.Buffer
	written bool
}

// NewResponseTransport wraps w. The status defaults to 200.
func NewResponseTransport(w http.ResponseWriter) *ResponseTransport {
	return &ResponseTransport{w: w, status: http.StatusOK}
}

// Header accepts either a status line ("HTTP/1.1 303 See Other") or a
// "Name: value" header.
func (t *ResponseTransport) Header(line string) error {
	if t.written {
		return fmt.Errorf("header %q sent after the response was written", line)
	}

	if strings.HasPrefix(line, "HTTP/") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fmt.Errorf("malformed status line %q", line)
		}
		code, err := strconv.Atoi(fields[1])
		if err != nil || code < 100 || code > 599 {
			return fmt.Errorf("malformed status line %q", line)
		}
		t.status = code
		return nil
	}

	name, value, ok := strings.Cut(line, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("malformed header line %q", line)
	}
	t.w.Header().Add(name, strings.TrimSpace(value))
	t.added = append(t.added, name)
	return nil
}

// Reset discards buffered output.
func (t *ResponseTransport) Reset() {
	t.body.Reset()
}

func (t *ResponseTransport) Write(p []byte) (int, error) {
	return t.body.Write(p)
}

// Flush sends the status, headers and buffered body.
func (t *ResponseTransport) Flush() error {
	t.writeHeader()
	_, err := t.body.WriteTo(t.w)
	return err
}

// Finish sends the status and headers if nothing has been written yet, which
// is the case for redirects.
func (t *ResponseTransport) Finish() {
	t.writeHeader()
}

// Discard drops everything queued so far so another response can be written.
// It reports false once the response has been sent.
func (t *ResponseTransport) Discard() bool {
	if t.written {
		return false
	}
	for _, name := range t.added {
		t.w.Header().Del(name)
	}
	t.added = nil
	t.status = http.StatusOK
	t.body.Reset()
	return true
}

// Status returns the status the response is (or will be) sent with.
func (t *ResponseTransport) Status() int {
	return t.status
}

// Written reports whether the status line was sent.
func (t *ResponseTransport) Written() bool {
	return t.written
}

func (t *ResponseTransport) writeHeader() {
	if t.written {
		return
	}
	if t.w.Header().Get("Content-Type") == "" && t.body.Len() > 0 {
		t.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	t.w.WriteHeader(t.status)
	t.written = true
}
