// testhelpers_test.go — fake backend platform shared across playback tests.
package playback

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reelgate/reelgate/internal/platform"
	"github.com/reelgate/reelgate/internal/ratelimit"
)

const testToken = "valid-user-token"

// fakePlatform emulates the identity, record store, and storage endpoints of
// the backend platform.
type fakePlatform struct {
	content       map[string]Content
	subscriptions map[string]Subscription // keyed by user id
	objects       map[string]bool         // keyed by "bucket/key"
	signFails     bool

	calls            atomic.Int64
	subscriptionHits atomic.Int64
	signHits         atomic.Int64
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		content:       map[string]Content{},
		subscriptions: map[string]Subscription{},
		objects:       map[string]bool{},
	}
}

func (f *fakePlatform) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	switch {
	case r.URL.Path == "/auth/v1/user":
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "u-1", "email": "viewer@example.com"})

	case r.URL.Path == "/rest/v1/content":
		id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")
		rows := []Content{}
		if c, ok := f.content[id]; ok {
			rows = append(rows, c)
		}
		json.NewEncoder(w).Encode(rows)

	case r.URL.Path == "/rest/v1/subscriptions":
		f.subscriptionHits.Add(1)
		userID := strings.TrimPrefix(r.URL.Query().Get("user_id"), "eq.")
		rows := []Subscription{}
		if s, ok := f.subscriptions[userID]; ok {
			rows = append(rows, s)
		}
		json.NewEncoder(w).Encode(rows)

	case r.Method == http.MethodHead && strings.HasPrefix(r.URL.Path, "/storage/v1/object/"):
		key := strings.TrimPrefix(r.URL.Path, "/storage/v1/object/")
		if f.objects[key] {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}

	case strings.HasPrefix(r.URL.Path, "/storage/v1/object/sign/"):
		f.signHits.Add(1)
		if f.signFails {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"statusCode":"500","error":"storage backend diagnostic detail"}`))
			return
		}
		signed := strings.TrimPrefix(r.URL.Path, "/storage/v1")
		json.NewEncoder(w).Encode(map[string]string{"signedURL": signed + "?token=fake-signature"})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func discardLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log.WithField("service", "playback-test")
}

// newTestServer wires a playback Server to a fake platform.
func newTestServer(t *testing.T, fake *fakePlatform) *Server {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	pc := platform.New(platform.Options{
		BaseURL:        srv.URL,
		AnonKey:        "anon-key",
		ServiceRoleKey: "service-key",
	})
	return NewServer(pc, ratelimit.New(nil), "videos", time.Hour, 10*time.Minute, discardLogger())
}

func strptr(s string) *string { return &s }

// signReq builds an authenticated POST /playback/sign request.
func signReq(body string, withToken bool) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/playback/sign", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if withToken {
		r.Header.Set("Authorization", "Bearer "+testToken)
	}
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var m map[string]string
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return m
}
