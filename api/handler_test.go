package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"dexscreener_stream/dexscreener"
	"dexscreener_stream/models"
	"dexscreener_stream/monitoring"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRecords struct {
	one    models.Record
	oneErr error
	all    []models.Record
	allErr error
}

func (s *stubRecords) GetOne(ctx context.Context, address string) (models.Record, error) {
	if s.oneErr != nil {
		return models.Record{}, s.oneErr
	}
	return s.one, nil
}

func (s *stubRecords) GetAll(ctx context.Context) ([]models.Record, error) {
	return s.all, s.allErr
}

func newRouter(t *testing.T, records Records) *gin.Engine {
	streamed := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }
	return NewHandler(records, streamed, monitoring.NewRegistry(), zaptest.NewLogger(t).Sugar()).Router()
}

func serve(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetToken(t *testing.T) {
	rec := models.Record{Address: "ABC", Name: "Abc", PriceNative: 1.5, TxCount: 10, Venue: "raydium"}
	w := serve(newRouter(t, &stubRecords{one: rec}), "/token/ABC")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got models.Record
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != rec {
		t.Errorf("expected %+v, got %+v", rec, got)
	}

	var raw map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &raw)
	for _, key := range []string{"token_address", "price_sol", "transaction_count", "protocol"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing wire field %q", key)
		}
	}
}

func TestGetTokenErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: ABC", dexscreener.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: status 500", dexscreener.ErrUnavailable), http.StatusBadGateway},
		{fmt.Errorf("%w: unexpected EOF", dexscreener.ErrMalformed), http.StatusBadGateway},
		{errors.New("something else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := serve(newRouter(t, &stubRecords{oneErr: tt.err}), "/token/ABC")
		if w.Code != tt.code {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.code, w.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == "" {
			t.Errorf("%v: expected error body, got %q", tt.err, w.Body.String())
		}
	}
}

func TestGetTokens(t *testing.T) {
	records := []models.Record{{Address: "ABC"}, {Address: "XYZ"}}
	w := serve(newRouter(t, &stubRecords{all: records}), "/tokens/")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got []models.Record
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].Address != "ABC" || got[1].Address != "XYZ" {
		t.Errorf("unexpected body %+v", got)
	}
}

func TestGetTokensEmptyIsArray(t *testing.T) {
	w := serve(newRouter(t, &stubRecords{}), "/tokens/")
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Errorf("expected 200 [], got %d %q", w.Code, w.Body.String())
	}
}

func TestGetTokensUpstreamFailure(t *testing.T) {
	w := serve(newRouter(t, &stubRecords{allErr: dexscreener.ErrUnavailable}), "/tokens/")
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestStreamRoutes(t *testing.T) {
	r := newRouter(t, &stubRecords{})
	for _, path := range []string{"/ws/", "/ws/tokens/"} {
		if w := serve(r, path); w.Code != http.StatusTeapot {
			t.Errorf("%s: expected stream handler, got %d", path, w.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	w := serve(newRouter(t, &stubRecords{}), "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var status monitoring.HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("expected ok, got %q", status.Status)
	}
}
