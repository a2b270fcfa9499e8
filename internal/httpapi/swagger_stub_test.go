//go:build !swagger

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSwaggerNotMountedWithoutTag(t *testing.T) {
	h := NewMux(&mockService{}, Deps{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without swagger tag, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "-tags swagger") {
		t.Fatalf("body=%s", w.Body.String())
	}
}
