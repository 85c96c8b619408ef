// Package httpassert asserts on HTTP responses in tests.
//
// The status helpers report through testify's assert and return whether the
// assertion held. Helpers that decode the body stop the test when they cannot.
// The body can be read by more than one helper.
package httpassert

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// maxBodyInMessage limits the body shown in failure messages.
const maxBodyInMessage = 512

// OK asserts a 200 response.
func OK(tb testing.TB, resp *http.Response) bool {
	tb.Helper()
	return Status(tb, resp, http.StatusOK)
}

// OKWith asserts a 200 response and decodes its JSON body.
func OKWith[T any](tb testing.TB, resp *http.Response) T {
	tb.Helper()
	return StatusWithBody[T](tb, resp, http.StatusOK)
}

// NoContent asserts a 204 response.
func NoContent(tb testing.TB, resp *http.Response) bool {
	tb.Helper()
	return Status(tb, resp, http.StatusNoContent)
}

// Accepted asserts a 202 response.
func Accepted(tb testing.TB, resp *http.Response) bool {
	tb.Helper()
	return Status(tb, resp, http.StatusAccepted)
}

// BadRequest asserts a 400 response.
func BadRequest(tb testing.TB, resp *http.Response) bool {
	tb.Helper()
	return Status(tb, resp, http.StatusBadRequest)
}

// Unauthorized asserts a 401 response.
func Unauthorized(tb testing.TB, resp *http.Response) bool {
	tb.Helper()
	return Status(tb, resp, http.StatusUnauthorized)
}

// Forbidden asserts a 403 response.
func Forbidden(tb testing.TB, resp *http.Response) bool {
	tb.Helper()
	return Status(tb, resp, http.StatusForbidden)
}

// NotFound asserts a 404 response.
func NotFound(tb testing.TB, resp *http.Response) bool {
	tb.Helper()
	return Status(tb, resp, http.StatusNotFound)
}

// Status asserts the response status. The failure message shows the start of
// the body.
func Status(tb testing.TB, resp *http.Response, code int) bool {
	tb.Helper()
	return assert.Equal(tb, code, resp.StatusCode, "unexpected status, body: %s", bodySnippet(tb, resp))
}

// StatusIn asserts that the response status is one of codes.
func StatusIn(tb testing.TB, resp *http.Response, codes ...int) bool {
	tb.Helper()
	return assert.True(tb, lo.Contains(codes, resp.StatusCode),
		"status %d not in %v, body: %s", resp.StatusCode, codes, bodySnippet(tb, resp))
}

// StatusWithBody asserts the response status and decodes the JSON body.
func StatusWithBody[T any](tb testing.TB, resp *http.Response, code int) T {
	tb.Helper()
	require.Equal(tb, code, resp.StatusCode, "unexpected status, body: %s", bodySnippet(tb, resp))
	return JSONBody[T](tb, resp)
}

// JSONBody decodes the JSON body.
func JSONBody[T any](tb testing.TB, resp *http.Response) T {
	tb.Helper()

	var v T
	require.NoError(tb, json.Unmarshal(Body(tb, resp), &v), "failed to decode body: %s", bodySnippet(tb, resp))
	return v
}

// JSONPath returns the value at path in the JSON body, see gjson for the
// syntax. The value must exist.
func JSONPath(tb testing.TB, resp *http.Response, path string) gjson.Result {
	tb.Helper()

	body := Body(tb, resp)
	require.True(tb, gjson.ValidBytes(body), "body is not valid json: %s", bodySnippet(tb, resp))

	res := gjson.GetBytes(body, path)
	require.True(tb, res.Exists(), "no value at %q in %s", path, bodySnippet(tb, resp))
	return res
}

// Body reads the body and puts it back so it can be read again.
func Body(tb testing.TB, resp *http.Response) []byte {
	tb.Helper()
	if resp.Body == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	require.NoError(tb, err, "failed to read body")
	require.NoError(tb, resp.Body.Close())

	resp.Body = io.NopCloser(bytes.NewReader(data))
	return data
}

func bodySnippet(tb testing.TB, resp *http.Response) string {
	tb.Helper()

	body := Body(tb, resp)
	if len(body) > maxBodyInMessage {
		return string(body[:maxBodyInMessage]) + "..."
	}

	return string(body)
}
