// records.go — row reads and writes against the platform's REST record store.
// All calls run on the service-role tier: the flow must see subscription and
// content rows even when row-level policies hide them from the end user.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

// GetByID fetches a single record by primary key into dest.
// Returns ErrNotFound when no row matches.
func (s ServiceAccess) GetByID(ctx context.Context, collection, id string, dest any) error {
	params := url.Values{}
	params.Set("id", "eq."+id)
	params.Set("select", "*")
	params.Set("limit", "1")

	var rows []json.RawMessage
	if err := s.Query(ctx, collection, params, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return json.Unmarshal(rows[0], dest)
}

// Query fetches all records matching the filter params into dest, which must
// be a pointer to a slice.
func (s ServiceAccess) Query(ctx context.Context, collection string, params url.Values, dest any) error {
	u := s.c.baseURL + "/rest/v1/" + collection
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	s.serviceHeaders(req)

	resp, err := s.c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode != http.StatusOK {
		return &RemoteError{Op: "query " + collection, Status: resp.StatusCode, Body: truncate(body)}
	}
	return json.Unmarshal(body, dest)
}

// Insert creates a new record.
func (s ServiceAccess) Insert(ctx context.Context, collection string, payload any) error {
	return s.write(ctx, http.MethodPost, collection, nil, payload, "return=minimal")
}

// Upsert creates or replaces a record, merging on the given conflict column.
func (s ServiceAccess) Upsert(ctx context.Context, collection, conflictColumn string, payload any) error {
	params := url.Values{}
	params.Set("on_conflict", conflictColumn)
	return s.write(ctx, http.MethodPost, collection, params, payload,
		"resolution=merge-duplicates,return=minimal")
}

// Update patches all records matching the filter params.
func (s ServiceAccess) Update(ctx context.Context, collection string, params url.Values, payload any) error {
	return s.write(ctx, http.MethodPatch, collection, params, payload, "return=minimal")
}

func (s ServiceAccess) write(ctx context.Context, method, collection string, params url.Values, payload any, prefer string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	u := s.c.baseURL + "/rest/v1/" + collection
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	s.serviceHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", prefer)

	resp, err := s.c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{Op: method + " " + collection, Status: resp.StatusCode, Body: truncate(respBody)}
	}
	return nil
}
