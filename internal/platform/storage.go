// storage.go — object existence probes and signed URL creation against the
// platform's storage endpoint.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reelgate/reelgate/internal/media"
)

// signResponse is the storage sign endpoint's body. The field casing has
// varied across platform versions, so both spellings are accepted.
type signResponse struct {
	SignedURL   string `json:"signedURL"`
	SignedURLlc string `json:"signedUrl"`
}

func (r signResponse) path() string {
	if r.SignedURL != "" {
		return r.SignedURL
	}
	return r.SignedURLlc
}

// ObjectExists probes whether an object is present in the bucket, without
// downloading it. The key must already be normalized.
func (s ServiceAccess) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	u := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.c.baseURL, bucket, media.EncodeKey(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false, err
	}
	s.serviceHeaders(req)

	resp, err := s.c.httpc.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		// The storage endpoint answers 400 for keys it considers malformed;
		// for an existence probe that is indistinguishable from absent.
		return false, nil
	default:
		return false, &RemoteError{Op: "head object", Status: resp.StatusCode}
	}
}

// CreateSignedURL asks the platform for a time-limited URL to a private
// object and returns it as an absolute URL. The key must already be
// normalized; ttl is rounded down to whole seconds.
func (s ServiceAccess) CreateSignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	payload, _ := json.Marshal(map[string]int64{"expiresIn": int64(ttl.Seconds())})

	u := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", s.c.baseURL, bucket, media.EncodeKey(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	s.serviceHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", &RemoteError{Op: "sign object", Status: resp.StatusCode, Body: truncate(body)}
	}

	var sr signResponse
	if err := json.Unmarshal(body, &sr); err != nil || sr.path() == "" {
		return "", &RemoteError{Op: "sign object", Status: resp.StatusCode, Body: truncate(body)}
	}

	return NormalizeSignedPath(s.c.baseURL, sr.path()), nil
}
