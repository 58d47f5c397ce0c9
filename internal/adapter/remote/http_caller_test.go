package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCallTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req toolRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Tool != "search" || req.Args["q"] != "golang" {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(toolResponse{Data: map[string]any{"hits": float64(3)}})
	}))
	defer srv.Close()

	caller := NewHTTPCaller(srv.URL, nil)
	data, err := caller.CallTool(context.Background(), "search", map[string]any{"q": "golang"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, ok := data.(map[string]any)
	if !ok || result["hits"] != float64(3) {
		t.Fatalf("unexpected data: %#v", data)
	}
}

func TestCallToolServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(toolResponse{Error: "tool not supported"})
	}))
	defer srv.Close()

	caller := NewHTTPCaller(srv.URL, nil)
	if _, err := caller.CallTool(context.Background(), "summarize", nil); err == nil {
		t.Fatal("expected error from service error field")
	}
}

func TestCallToolHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	caller := NewHTTPCaller(srv.URL, nil)
	if _, err := caller.CallTool(context.Background(), "search", nil); err == nil {
		t.Fatal("expected error on 500")
	}
}
