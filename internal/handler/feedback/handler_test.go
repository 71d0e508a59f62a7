package feedback

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	scenarioModel "github.com/avharris/repcoach/internal/model/scenario"
	"github.com/avharris/repcoach/internal/service/review"
)

func setupRouter() (*chi.Mux, scenarioModel.Store) {
	store := scenarioModel.NewMemoryStore(scenarioModel.Seed())
	handler := New(review.NewService(), store)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, store
}

func post(t *testing.T, r http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/feedback", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestFeedbackReturnsSectionedText(t *testing.T) {
	r, store := setupRouter()
	sc := store.List()[0]

	resp := post(t, r, map[string]any{
		"scenario_id": sc.ID,
		"history": []map[string]string{
			{"sender": "ai", "text": "Hi, how do I connect the cables?"},
			{"sender": "user", "text": "Happy to help, plug the cable into the WAN port."},
		},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out struct {
		Feedback string `json:"feedback"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if !strings.Contains(out.Feedback, "**Overall Impression**") {
		t.Fatalf("feedback missing heading markers: %q", out.Feedback)
	}
}

func TestFeedbackRejectsEmptyHistory(t *testing.T) {
	r, store := setupRouter()

	resp := post(t, r, map[string]any{
		"scenario_id": store.List()[0].ID,
		"history":     []map[string]string{},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestFeedbackRejectsUnknownScenario(t *testing.T) {
	r, _ := setupRouter()

	resp := post(t, r, map[string]any{
		"scenario_id": "nope",
		"history": []map[string]string{
			{"sender": "user", "text": "hello"},
		},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
