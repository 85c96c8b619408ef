package host

import (
	"bytes"
	"net/http"

	"github.com/cockroachdb/errors"
)

// ErrBufferFull is returned when a handler writes more than the buffer limit.
var ErrBufferFull = errors.New("response buffer is full")

type responseWriter struct {
	resp    http.ResponseWriter
	limit   int
	buf     bytes.Buffer
	status  int
	header  http.Header
	flushed bool
}

// NewResponseWriter buffers everything written until FlushBuffer is called. A
// negative limit disables the size check.
func NewResponseWriter(resp http.ResponseWriter, limit int) ResponseWriter {
	return &responseWriter{resp: resp, limit: limit, header: http.Header{}}
}

func (w *responseWriter) Header() http.Header { return w.header }

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if w.limit >= 0 && w.buf.Len()+len(p) > w.limit {
		return 0, errors.Wrapf(ErrBufferFull, "limit of %d bytes", w.limit)
	}

	return w.buf.Write(p)
}

// Reset discards the buffered body, headers and status.
func (w *responseWriter) Reset() {
	w.buf.Reset()
	w.status = 0
	w.header = http.Header{}
}

// FlushBuffer writes the buffered response to the underlying writer. Only the
// first call has an effect.
func (w *responseWriter) FlushBuffer() error {
	if w.flushed {
		return nil
	}

	w.flushed = true
	for k, vs := range w.header {
		w.resp.Header()[k] = vs
	}

	if w.status == 0 {
		w.status = http.StatusOK
	}

	w.resp.WriteHeader(w.status)
	if _, err := w.buf.WriteTo(w.resp); err != nil {
		return errors.Wrap(err, "failed to write buffered body")
	}

	return nil
}
