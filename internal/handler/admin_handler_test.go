package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/blogsmith/internal/blog"
	"github.com/hitoshi/blogsmith/internal/model"
)

type mockAdminService struct {
	getStatsFn func(ctx context.Context, caller *model.Identity) (*blog.Stats, error)
}

func (m *mockAdminService) GetStats(ctx context.Context, caller *model.Identity) (*blog.Stats, error) {
	return m.getStatsFn(ctx, caller)
}

var _ AdminServiceInterface = (*mockAdminService)(nil)

func TestAdminStats_ReturnsCounts(t *testing.T) {
	svc := &mockAdminService{
		getStatsFn: func(_ context.Context, caller *model.Identity) (*blog.Stats, error) {
			if caller == nil || caller.Role != model.RoleAdmin {
				t.Errorf("caller = %+v, want admin", caller)
			}
			return &blog.Stats{UserCount: 7, BlogCount: 42}, nil
		},
	}
	h := NewAdminHandler(svc)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil),
		&model.Identity{UserID: "admin-1", Username: "admin", Role: model.RoleAdmin})
	w := httptest.NewRecorder()

	h.Stats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]int64
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body["userCount"] != 7 || body["blogCount"] != 42 {
		t.Errorf("body = %v, want userCount=7 blogCount=42", body)
	}
}

func TestAdminStats_AnonymousReturns401(t *testing.T) {
	h := NewAdminHandler(&mockAdminService{})

	w := httptest.NewRecorder()
	h.Stats(w, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAdminStats_NonAdminReturns403(t *testing.T) {
	svc := &mockAdminService{
		getStatsFn: func(_ context.Context, _ *model.Identity) (*blog.Stats, error) {
			return nil, model.NewForbiddenError()
		},
	}
	h := NewAdminHandler(svc)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil),
		&model.Identity{UserID: "user-1", Username: "alice", Role: model.RoleUser})
	w := httptest.NewRecorder()

	h.Stats(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}
