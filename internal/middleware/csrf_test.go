package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// doCSRFRequest はCSRFミドルウェア越しにリクエストを実行する。
// cookieToken・headerTokenが空文字列の場合はそれぞれ付与しない。
func doCSRFRequest(t *testing.T, config CSRFConfig, method, cookieToken, headerToken string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	handlerCalled := false
	handler := NewCSRFMiddleware(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/api/detect", nil)
	if cookieToken != "" {
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: cookieToken})
	}
	if headerToken != "" {
		req.Header.Set(csrfHeaderName, headerToken)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, handlerCalled
}

// findCSRFCookie はレスポンスからCSRFトークンCookieを探す。
func findCSRFCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == csrfCookieName {
			return c
		}
	}
	return nil
}

// 安全なメソッドはトークンなしで通ることを検証
func TestCSRFMiddleware_SafeMethods_PassThroughWithoutToken(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			w, called := doCSRFRequest(t, CSRFConfig{}, method, "", "")

			if !called {
				t.Fatalf("handler should have been called for %s request", method)
			}
			if w.Result().StatusCode != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
			}
		})
	}
}

// 状態変更メソッドはトークンなしで403になることを検証
func TestCSRFMiddleware_MutatingMethods_RequireToken(t *testing.T) {
	for _, method := range []string{
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	} {
		t.Run(method, func(t *testing.T) {
			w, called := doCSRFRequest(t, CSRFConfig{}, method, "", "")

			if called {
				t.Fatalf("handler should not be called for %s without token", method)
			}
			if w.Result().StatusCode != http.StatusForbidden {
				t.Errorf("%s: status = %d, want %d", method, w.Result().StatusCode, http.StatusForbidden)
			}
		})
	}
}

// トークン検証の組み合わせを検証
func TestCSRFMiddleware_TokenValidation(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		cookieToken string
		headerToken string
		wantStatus  int
		wantCalled  bool
	}{
		{"Cookieのみ", http.MethodPost, "token-abc", "", http.StatusForbidden, false},
		{"不一致", http.MethodPost, "token-abc", "wrong-token", http.StatusForbidden, false},
		{"一致", http.MethodPost, "valid-token", "valid-token", http.StatusOK, true},
		{"PUTで一致", http.MethodPut, "valid-token", "valid-token", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, called := doCSRFRequest(t, CSRFConfig{}, tt.method, tt.cookieToken, tt.headerToken)

			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if w.Result().StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, tt.wantStatus)
			}
		})
	}
}

// GETリクエストでCSRFトークンCookieが正しい属性で設定されることを検証
func TestCSRFMiddleware_GETRequest_SetsCSRFCookie(t *testing.T) {
	w, _ := doCSRFRequest(t, CSRFConfig{CookieDomain: "example.com"}, http.MethodGet, "", "")

	cookie := findCSRFCookie(w.Result())
	if cookie == nil {
		t.Fatal("expected CSRF cookie to be set on GET request")
	}
	if cookie.Value == "" {
		t.Error("CSRF cookie value should not be empty")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("CSRF cookie SameSite = %v, want %v", cookie.SameSite, http.SameSiteLaxMode)
	}
	// フロントエンドがヘッダーに乗せ替えるためHttpOnlyにしない
	if cookie.HttpOnly {
		t.Error("CSRF cookie should NOT be HttpOnly (frontend needs to read it)")
	}
	if cookie.Path != "/" {
		t.Errorf("CSRF cookie Path = %q, want %q", cookie.Path, "/")
	}
	if cookie.MaxAge != csrfTokenMaxAge {
		t.Errorf("CSRF cookie MaxAge = %d, want %d", cookie.MaxAge, csrfTokenMaxAge)
	}
}

// 既存のCSRFトークンCookieが上書きされないことを検証
func TestCSRFMiddleware_GETRequest_ExistingCookie_DoesNotReplace(t *testing.T) {
	w, _ := doCSRFRequest(t, CSRFConfig{}, http.MethodGet, "existing-token", "")

	if findCSRFCookie(w.Result()) != nil {
		t.Error("CSRF cookie should not be re-set when already present")
	}
}

// --- CSRFトークン取得エンドポイントのテスト ---

// トークン取得エンドポイントがCookieとJSONの両方で同じトークンを返すことを検証
func TestCSRFTokenHandler_SetsTokenCookieAndReturnsJSON(t *testing.T) {
	h := NewCSRFTokenHandler(CSRFConfig{CookieDomain: "example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Token == "" {
		t.Error("expected non-empty token in response")
	}

	cookie := findCSRFCookie(resp)
	if cookie == nil {
		t.Fatal("expected CSRF cookie to be set")
	}
	if cookie.Value != body.Token {
		t.Errorf("cookie value = %q, response token = %q; should match", cookie.Value, body.Token)
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie SameSite = %v, want Lax", cookie.SameSite)
	}
}

// 既存のトークンCookieがある場合に同じトークンが返ることを検証
func TestCSRFTokenHandler_ExistingCookie_ReturnsSameToken(t *testing.T) {
	h := NewCSRFTokenHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-csrf-token"})
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Token != "existing-csrf-token" {
		t.Errorf("token = %q, want %q (existing token should be returned)", body.Token, "existing-csrf-token")
	}
}
