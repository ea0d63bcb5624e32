package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestHeadersMiddleware(t *testing.T) {
	h := Headers{Enable: true, EnableHSTS: true, HSTSIncludeSubdomains: true}.Middleware(okHandler())

	plain := httptest.NewRecorder()
	h.ServeHTTP(plain, httptest.NewRequest(http.MethodGet, "http://api.example.com/livez", nil))
	require.Equal(t, "nosniff", plain.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "no-store", plain.Header().Get("Cache-Control"))
	require.Contains(t, plain.Header().Get("Content-Security-Policy"), "default-src 'none'")
	require.Empty(t, plain.Header().Get("Strict-Transport-Security"))

	direct := httptest.NewRequest(http.MethodGet, "https://api.example.com/livez", nil)
	direct.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, direct)
	require.Equal(t, "max-age=31536000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))

	proxied := httptest.NewRequest(http.MethodGet, "http://api.example.com/livez", nil)
	proxied.Header.Set("X-Forwarded-Proto", "HTTPS")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, proxied)
	require.NotEmpty(t, rr.Header().Get("Strict-Transport-Security"))
}

func TestHeadersMiddlewareDisabled(t *testing.T) {
	rr := httptest.NewRecorder()
	Headers{EnableHSTS: true}.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Empty(t, rr.Header().Get("X-Content-Type-Options"))
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://admin.example.com"})(okHandler())

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "http://localhost/api/orders", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	allowed := preflight("https://admin.example.com")
	require.Equal(t, "https://admin.example.com", allowed.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", allowed.Header().Get("Access-Control-Allow-Credentials"))

	require.Empty(t, preflight("https://malicious.example").Header().Get("Access-Control-Allow-Origin"))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://localhost/api/orders", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	CORS(nil)(okHandler()).ServeHTTP(rr, req)
	require.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
