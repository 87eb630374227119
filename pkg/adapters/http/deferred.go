package http

import (
	"bytes"
	"net/http"
)

// deferredResponse holds a complete response in memory until commit, so it
// can still be dropped when the session cannot be saved.
type deferredResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newDeferredResponse() *deferredResponse {
	return &deferredResponse{header: make(http.Header)}
}

func (d *deferredResponse) Header() http.Header {
	return d.header
}

func (d *deferredResponse) WriteHeader(status int) {
	if d.status == 0 {
		d.status = status
	}
}

func (d *deferredResponse) Write(p []byte) (int, error) {
	if d.status == 0 {
		d.status = http.StatusOK
	}
	return d.body.Write(p)
}

// commit copies the held response to w.
func (d *deferredResponse) commit(w http.ResponseWriter) error {
	dst := w.Header()
	for name, values := range d.header {
		dst[name] = values
	}
	status := d.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, err := d.body.WriteTo(w)
	return err
}
