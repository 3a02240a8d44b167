// creators_test.go — application and moderation handler tests.
package creators

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/reelgate/reelgate/internal/platform"
)

// Tokens map to identities in the fake backend.
const (
	viewerToken = "viewer-token"
	adminToken  = "admin-token"
)

// fakeBackend emulates identity, profiles, creators, and content records.
type fakeBackend struct {
	mu       sync.Mutex
	profiles map[string]profile
	creators map[string]Creator
	content  map[string]moderatedContent

	patches map[string][]map[string]any // collection → payloads
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		profiles: map[string]profile{},
		creators: map[string]Creator{},
		content:  map[string]moderatedContent{},
		patches:  map[string][]map[string]any{},
	}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idOf := func() string { return strings.TrimPrefix(r.URL.Query().Get("id"), "eq.") }

	switch {
	case r.URL.Path == "/auth/v1/user":
		switch r.Header.Get("Authorization") {
		case "Bearer " + viewerToken:
			json.NewEncoder(w).Encode(map[string]string{"id": "u-viewer"})
		case "Bearer " + adminToken:
			json.NewEncoder(w).Encode(map[string]string{"id": "u-admin"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}

	case r.URL.Path == "/rest/v1/profiles" && r.Method == http.MethodGet:
		rows := []profile{}
		if p, ok := f.profiles[idOf()]; ok {
			rows = append(rows, p)
		}
		json.NewEncoder(w).Encode(rows)

	case r.URL.Path == "/rest/v1/profiles" && r.Method == http.MethodPatch:
		var patch map[string]any
		json.NewDecoder(r.Body).Decode(&patch)
		f.patches["profiles"] = append(f.patches["profiles"], patch)
		if p, ok := f.profiles[idOf()]; ok {
			if role, ok := patch["role"].(string); ok {
				p.Role = role
				f.profiles[p.ID] = p
			}
		}
		w.WriteHeader(http.StatusNoContent)

	case r.URL.Path == "/rest/v1/creators" && r.Method == http.MethodGet:
		rows := []Creator{}
		if id := idOf(); id != "" {
			if c, ok := f.creators[id]; ok {
				rows = append(rows, c)
			}
		} else if status := strings.TrimPrefix(r.URL.Query().Get("status"), "eq."); status != "" {
			for _, c := range f.creators {
				if c.Status == status {
					rows = append(rows, c)
				}
			}
		}
		json.NewEncoder(w).Encode(rows)

	case r.URL.Path == "/rest/v1/creators" && r.Method == http.MethodPost:
		var app Creator
		json.NewDecoder(r.Body).Decode(&app)
		f.creators[app.ID] = app
		w.WriteHeader(http.StatusCreated)

	case r.URL.Path == "/rest/v1/creators" && r.Method == http.MethodPatch:
		var patch map[string]any
		json.NewDecoder(r.Body).Decode(&patch)
		f.patches["creators"] = append(f.patches["creators"], patch)
		if c, ok := f.creators[idOf()]; ok {
			if status, ok := patch["status"].(string); ok {
				c.Status = status
				f.creators[c.ID] = c
			}
		}
		w.WriteHeader(http.StatusNoContent)

	case r.URL.Path == "/rest/v1/content" && r.Method == http.MethodGet:
		rows := []moderatedContent{}
		if id := idOf(); id != "" {
			if c, ok := f.content[id]; ok {
				rows = append(rows, c)
			}
		} else if status := strings.TrimPrefix(r.URL.Query().Get("status"), "eq."); status != "" {
			for _, c := range f.content {
				if c.Status == status {
					rows = append(rows, c)
				}
			}
		}
		json.NewEncoder(w).Encode(rows)

	case r.URL.Path == "/rest/v1/content" && r.Method == http.MethodPatch:
		var patch map[string]any
		json.NewDecoder(r.Body).Decode(&patch)
		f.patches["content"] = append(f.patches["content"], patch)
		if c, ok := f.content[idOf()]; ok {
			if status, ok := patch["status"].(string); ok {
				c.Status = status
				f.content[c.ID] = c
			}
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestServer(t *testing.T, fake *fakeBackend) *Server {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	pc := platform.New(platform.Options{
		BaseURL:        srv.URL,
		AnonKey:        "anon-key",
		ServiceRoleKey: "service-key",
	})
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewServer(pc, log.WithField("service", "creators-test"))
}

func doReq(s *Server, method, path, body, token string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, r)
	return w
}

// ── Applications ──────────────────────────────────────────────────────────────

func TestApply_FilesPendingApplication(t *testing.T) {
	fake := newFakeBackend()
	s := newTestServer(t, fake)

	w := doReq(s, http.MethodPost, "/apply", `{"display_name":"Asha","bio":"short films"}`, viewerToken)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	app, ok := fake.creators["u-viewer"]
	if !ok || app.Status != "pending" || app.DisplayName != "Asha" {
		t.Errorf("unexpected application %+v", app)
	}
}

func TestApply_ApprovedCannotReapply(t *testing.T) {
	fake := newFakeBackend()
	fake.creators["u-viewer"] = Creator{ID: "u-viewer", DisplayName: "Asha", Status: "approved"}
	s := newTestServer(t, fake)

	w := doReq(s, http.MethodPost, "/apply", `{"display_name":"Asha2"}`, viewerToken)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestApply_RejectedMayReapply(t *testing.T) {
	fake := newFakeBackend()
	fake.creators["u-viewer"] = Creator{ID: "u-viewer", DisplayName: "Asha", Status: "rejected"}
	s := newTestServer(t, fake)

	w := doReq(s, http.MethodPost, "/apply", `{"display_name":"Asha"}`, viewerToken)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.creators["u-viewer"].Status != "pending" {
		t.Error("re-application must reset status to pending")
	}
}

func TestApply_RequiresDisplayName(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	w := doReq(s, http.MethodPost, "/apply", `{"bio":"no name"}`, viewerToken)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMe_NoApplication(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	w := doReq(s, http.MethodGet, "/me", "", viewerToken)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "none" {
		t.Errorf("expected status none, got %q", body["status"])
	}
}

// ── Admin gate ────────────────────────────────────────────────────────────────

func TestAdmin_ViewerForbidden(t *testing.T) {
	fake := newFakeBackend()
	fake.profiles["u-viewer"] = profile{ID: "u-viewer", Role: "viewer"}
	s := newTestServer(t, fake)

	w := doReq(s, http.MethodGet, "/admin/creators", "", viewerToken)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}
}

func TestAdmin_NoProfileForbidden(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	w := doReq(s, http.MethodGet, "/admin/creators", "", viewerToken)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without a profile row, got %d", w.Code)
	}
}

func TestAdmin_NoTokenUnauthorized(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	w := doReq(s, http.MethodGet, "/admin/creators", "", "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

// ── Moderation ────────────────────────────────────────────────────────────────

func adminBackend() *fakeBackend {
	fake := newFakeBackend()
	fake.profiles["u-admin"] = profile{ID: "u-admin", Role: "admin"}
	return fake
}

func TestApproveCreator_GrantsRole(t *testing.T) {
	fake := adminBackend()
	fake.profiles["u-viewer"] = profile{ID: "u-viewer", Role: "viewer"}
	fake.creators["u-viewer"] = Creator{ID: "u-viewer", DisplayName: "Asha", Status: "pending"}
	s := newTestServer(t, fake)

	w := doReq(s, http.MethodPost, "/admin/creators/u-viewer/approve", "", adminToken)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.creators["u-viewer"].Status != "approved" {
		t.Error("application must be approved")
	}
	if fake.profiles["u-viewer"].Role != "creator" {
		t.Error("approval must grant the creator role")
	}
}

func TestRejectCreator(t *testing.T) {
	fake := adminBackend()
	fake.creators["u-viewer"] = Creator{ID: "u-viewer", DisplayName: "Asha", Status: "pending"}
	s := newTestServer(t, fake)

	w := doReq(s, http.MethodPost, "/admin/creators/u-viewer/reject", "", adminToken)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.creators["u-viewer"].Status != "rejected" {
		t.Error("application must be rejected")
	}
	if len(fake.patches["profiles"]) != 0 {
		t.Error("rejection must not touch profiles")
	}
}

func TestApproveCreator_UnknownApplication(t *testing.T) {
	s := newTestServer(t, adminBackend())

	w := doReq(s, http.MethodPost, "/admin/creators/u-ghost/approve", "", adminToken)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestApproveContent(t *testing.T) {
	fake := adminBackend()
	fake.content["c-1"] = moderatedContent{ID: "c-1", Title: "Short", Status: "pending"}
	s := newTestServer(t, fake)

	w := doReq(s, http.MethodPost, "/admin/content/c-1/approve", "", adminToken)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.content["c-1"].Status != "approved" {
		t.Error("content must be approved")
	}
}

func TestListPendingContent(t *testing.T) {
	fake := adminBackend()
	fake.content["c-1"] = moderatedContent{ID: "c-1", Title: "Short", Status: "pending"}
	fake.content["c-2"] = moderatedContent{ID: "c-2", Title: "Live", Status: "approved"}
	s := newTestServer(t, fake)

	w := doReq(s, http.MethodGet, "/admin/content", "", adminToken)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Content []moderatedContent `json:"content"`
	}
	json.NewDecoder(w.Body).Decode(&body)
	if len(body.Content) != 1 || body.Content[0].ID != "c-1" {
		t.Errorf("expected only pending rows, got %+v", body.Content)
	}
}
