package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeMatchmaker struct {
	queueLen int
	active   int
}

func (f *fakeMatchmaker) QueueLen() int         { return f.queueLen }
func (f *fakeMatchmaker) ActiveMatchCount() int { return f.active }

func TestHandlerReturnsCounts(t *testing.T) {
	mm := &fakeMatchmaker{queueLen: 3, active: 2}
	h := Handler(mm)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.QueueLen != 3 || resp.ActiveMatchCount != 2 {
		t.Errorf("expected {3 2}, got %+v", resp)
	}
}

func TestHandlerRejectsNonGet(t *testing.T) {
	h := Handler(&fakeMatchmaker{})
	req := httptest.NewRequest(http.MethodPost, "/api/status", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
