// platform_test.go — client tests against a fake platform served by httptest.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{
		BaseURL:        srv.URL,
		AnonKey:        "anon-key",
		ServiceRoleKey: "service-key",
	})
}

// ── Identity verification ─────────────────────────────────────────────────────

func TestVerify_OK(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("expected user token on auth call, got %q", got)
		}
		if got := r.Header.Get("apikey"); got != "anon-key" {
			t.Errorf("identity verification must use the anon key, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "u-1", "email": "a@b.c"})
	}))

	id, err := c.AsUser().Verify(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if id.ID != "u-1" {
		t.Errorf("expected user id u-1, got %q", id.ID)
	}
}

func TestVerify_Rejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	if _, err := c.AsUser().Verify(context.Background(), "stale-token"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerify_EmptyToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no platform call should be made for an empty token")
	}))

	if _, err := c.AsUser().Verify(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerify_LocalSecret(t *testing.T) {
	secret := "local-verify-secret-0123456789abcdef"
	c := New(Options{
		BaseURL:        "http://platform.invalid", // must never be dialed
		AnonKey:        "anon-key",
		ServiceRoleKey: "service-key",
		JWTSecret:      secret,
	})

	claims := jwt.RegisteredClaims{
		Subject:   "u-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}

	id, err := c.AsUser().Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("local verify failed: %v", err)
	}
	if id.ID != "u-42" {
		t.Errorf("expected subject u-42, got %q", id.ID)
	}

	// Expired token must be rejected locally.
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if _, err := c.AsUser().Verify(context.Background(), expired); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

// ── Record store ──────────────────────────────────────────────────────────────

func TestGetByID_Found(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/content" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "eq.c-1" {
			t.Errorf("expected id=eq.c-1 filter, got %q", got)
		}
		if got := r.Header.Get("apikey"); got != "service-key" {
			t.Errorf("record reads must use the service-role key, got %q", got)
		}
		w.Write([]byte(`[{"id":"c-1","title":"Film"}]`))
	}))

	var row struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := c.AsService().GetByID(context.Background(), "content", "c-1", &row); err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if row.Title != "Film" {
		t.Errorf("expected title Film, got %q", row.Title)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	var row struct{}
	if err := c.AsService().GetByID(context.Background(), "content", "missing", &row); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsert_SetsConflictColumn(t *testing.T) {
	var gotConflict, gotPrefer string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotConflict = r.URL.Query().Get("on_conflict")
		gotPrefer = r.Header.Get("Prefer")
		w.WriteHeader(http.StatusCreated)
	}))

	err := c.AsService().Upsert(context.Background(), "subscriptions", "user_id",
		map[string]any{"user_id": "u-1", "active": true})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if gotConflict != "user_id" {
		t.Errorf("expected on_conflict=user_id, got %q", gotConflict)
	}
	if gotPrefer != "resolution=merge-duplicates,return=minimal" {
		t.Errorf("unexpected Prefer header %q", gotPrefer)
	}
}

func TestQuery_RemoteError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}))

	var rows []json.RawMessage
	err := c.AsService().Query(context.Background(), "content", url.Values{}, &rows)
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500 recorded, got %d", re.Status)
	}
}

// ── Object storage ────────────────────────────────────────────────────────────

func TestObjectExists(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		if r.URL.Path == "/storage/v1/object/videos/u1/present.mp4" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	svc := c.AsService()
	ok, err := svc.ObjectExists(context.Background(), "videos", "u1/present.mp4")
	if err != nil || !ok {
		t.Errorf("expected present object, got ok=%v err=%v", ok, err)
	}
	ok, err = svc.ObjectExists(context.Background(), "videos", "u1/absent.mp4")
	if err != nil || ok {
		t.Errorf("expected absent object, got ok=%v err=%v", ok, err)
	}
}

func TestCreateSignedURL(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/storage/v1/object/sign/videos/u1/a.mp4" {
			t.Errorf("unexpected sign path %s", r.URL.Path)
		}
		var body map[string]int64
		json.NewDecoder(r.Body).Decode(&body)
		if body["expiresIn"] != 3600 {
			t.Errorf("expected expiresIn 3600, got %d", body["expiresIn"])
		}
		// Bare path: the client must add the API segment exactly once.
		json.NewEncoder(w).Encode(map[string]string{"signedURL": "/object/sign/videos/u1/a.mp4?token=tok"})
	}))

	got, err := c.AsService().CreateSignedURL(context.Background(), "videos", "u1/a.mp4", time.Hour)
	if err != nil {
		t.Fatalf("CreateSignedURL failed: %v", err)
	}
	want := c.BaseURL() + "/storage/v1/object/sign/videos/u1/a.mp4?token=tok"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCreateSignedURL_Failure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid key"}`))
	}))

	_, err := c.AsService().CreateSignedURL(context.Background(), "videos", "bad", time.Hour)
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
}
