package middleware

import "net/http"

// corsHeaders はオリジン以外の固定CORSヘッダー。
// セッションCookieとCSRF Cookieを伴うリクエストを許可するため
// Allow-Credentialsをtrueにし、判定リクエストのmultipart送信と
// JSON送信の両方が通るようContent-Typeをヘッダーに含める。
var corsHeaders = map[string]string{
	"Access-Control-Allow-Methods":     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	"Access-Control-Allow-Headers":     "Content-Type, X-CSRF-Token",
	"Access-Control-Allow-Credentials": "true",
	"Access-Control-Max-Age":           "86400",
}

// NewCORSMiddleware は指定された単一オリジンに対するCORSミドルウェアを返す。
// credentials送信と共存できないため、ワイルドカード(*)は使用しない。
// OPTIONSプリフライトリクエストはヘッダー付与後に204で打ち切る。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			for name, value := range corsHeaders {
				h.Set(name, value)
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
