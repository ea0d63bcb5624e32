package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusRecorderKeepsFirstStatus(t *testing.T) {
	rec := NewStatusRecorder(httptest.NewRecorder())
	_, _ = rec.Write([]byte("ok"))
	rec.WriteHeader(http.StatusInternalServerError)
	require.Equal(t, http.StatusOK, rec.Status())
	require.EqualValues(t, 2, rec.BytesWritten())
	require.Same(t, rec, NewStatusRecorder(rec))
}
