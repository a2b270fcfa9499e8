package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestRequireAuth(t *testing.T) {
	SetAuthSecret("s3cret")
	t.Cleanup(func() { SetAuthSecret("") })
	svc := &mockService{}
	h := NewMux(svc, Deps{})

	post := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/actions/connect", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	if code := post(""); code != http.StatusUnauthorized {
		t.Fatalf("no token status=%d", code)
	}
	good := signed(t, jwt.SigningMethodHS256, []byte("s3cret"), jwt.MapClaims{"sub": "pilot", "exp": time.Now().Add(time.Hour).Unix()})
	if code := post(good); code != http.StatusAccepted {
		t.Fatalf("valid token status=%d", code)
	}
	wrongKey := signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "pilot"})
	if code := post(wrongKey); code != http.StatusUnauthorized {
		t.Fatalf("wrong key status=%d", code)
	}
	expired := signed(t, jwt.SigningMethodHS256, []byte("s3cret"), jwt.MapClaims{"sub": "pilot", "exp": time.Now().Add(-time.Hour).Unix()})
	if code := post(expired); code != http.StatusUnauthorized {
		t.Fatalf("expired token status=%d", code)
	}
	hs384 := signed(t, jwt.SigningMethodHS384, []byte("s3cret"), jwt.MapClaims{"sub": "pilot"})
	if code := post(hs384); code != http.StatusUnauthorized {
		t.Fatalf("HS384 token status=%d", code)
	}
	if len(svc.submitted) != 1 {
		t.Fatalf("submitted=%v", svc.submitted)
	}

	// read-only routes stay open
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status route status=%d", w.Code)
	}
}

func TestRequireAuthDisabledByDefault(t *testing.T) {
	SetAuthSecret("")
	w := httptest.NewRecorder()
	NewMux(&mockService{}, Deps{}).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/actions/show-status", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d", w.Code)
	}
}
