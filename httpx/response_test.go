package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(w, http.StatusNotFound, "not_found", "Ressource introuvable", map[string]string{"id": "12"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "not_found" || body.Message == "" || body.Details == nil {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Lit"}`))
	if err := DecodeJSON(r, &dst); err != nil || dst.Name != "Lit" {
		t.Fatalf("decode: %v %+v", err, dst)
	}
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSON(r, &dst); err == nil {
		t.Fatal("expected error on empty body")
	}
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	if err := DecodeJSON(r, &dst); err == nil {
		t.Fatal("expected error on malformed body")
	}
}
