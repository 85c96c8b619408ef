package host

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func BenchmarkResponseWriter(b *testing.B) {
	for _, dat := range [][]byte{
		make([]byte, 1024),
		make([]byte, 1024*64),
	} {
		b.Run("buffered-"+strconv.Itoa(len(dat)), func(b *testing.B) {
			b.ReportAllocs()

			for range b.N {
				w := NewResponseWriter(httptest.NewRecorder(), -1)
				_, err := w.Write(dat)
				require.NoError(b, err)
				require.NoError(b, w.FlushBuffer())
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	for _, tt := range []struct {
		name       string
		write      func(w ResponseWriter)
		wantStatus int
		wantBody   string
		wantHeader string
	}{
		{
			name:       "implicit 200",
			write:      func(ResponseWriter) {},
			wantStatus: http.StatusOK,
		},
		{
			name: "implicit header on write",
			write: func(w ResponseWriter) {
				w.Header().Set("X-Foo", "bar")
				fmt.Fprint(w, "foo")
			},
			wantStatus: http.StatusOK,
			wantBody:   "foo",
			wantHeader: "bar",
		},
		{
			name: "first status wins",
			write: func(w ResponseWriter) {
				w.WriteHeader(http.StatusCreated)
				w.WriteHeader(http.StatusTeapot)
				fmt.Fprint(w, "made")
			},
			wantStatus: http.StatusCreated,
			wantBody:   "made",
		},
		{
			name: "reset discards everything",
			write: func(w ResponseWriter) {
				w.Header().Set("X-Foo", "bar")
				w.WriteHeader(http.StatusAccepted)
				fmt.Fprint(w, "partial")
				w.Reset()
				w.WriteHeader(http.StatusConflict)
			},
			wantStatus: http.StatusConflict,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			w := NewResponseWriter(rec, -1)
			tt.write(w)

			assert.Empty(t, rec.Body.String())
			require.NoError(t, w.FlushBuffer())
			require.NoError(t, w.FlushBuffer())

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, tt.wantHeader, rec.Header().Get("X-Foo"))
		})
	}
}

func TestResponseWriterLimit(t *testing.T) {
	w := NewResponseWriter(httptest.NewRecorder(), 4)

	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	_, err = w.Write([]byte("de"))
	require.ErrorIs(t, err, ErrBufferFull)
	require.EqualError(t, err, "limit of 4 bytes: response buffer is full")
}
