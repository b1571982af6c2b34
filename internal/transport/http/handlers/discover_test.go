package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maxjeon97/friender/internal/domain/model"
	"github.com/maxjeon97/friender/internal/services/geo"
	"github.com/maxjeon97/friender/internal/services/match"
)

type fakeDiscoverService struct {
	candidates []model.Candidate
	err        error

	gotUsername string
	gotOrigin   string
	gotRadius   int
}

func (f *fakeDiscoverService) DiscoverCandidates(_ context.Context, username, originOverride string, radius int) ([]model.Candidate, error) {
	f.gotUsername = username
	f.gotOrigin = originOverride
	f.gotRadius = radius
	return f.candidates, f.err
}

func TestDiscoverReturnsCandidates(t *testing.T) {
	svc := &fakeDiscoverService{
		candidates: []model.Candidate{
			{
				Username:  "bob",
				FirstName: "Bob",
				LastName:  "Brown",
				Area:      model.Area{ZipCode: "94511", Distance: 4.2, City: "Bethel Island", State: "CA"},
			},
		},
	}
	handler := NewDiscoverHandler(svc, nil)

	rec := httptest.NewRecorder()
	handler.Discover(rec, authedRequest(http.MethodGet, "/discover", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotUsername != "alice" || svc.gotOrigin != "" || svc.gotRadius != 0 {
		t.Fatalf("service called with %s/%q/%d", svc.gotUsername, svc.gotOrigin, svc.gotRadius)
	}

	var resp struct {
		Candidates []struct {
			Username string `json:"username"`
			Area     struct {
				ZipCode string `json:"zip_code"`
			} `json:"area"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].Username != "bob" || resp.Candidates[0].Area.ZipCode != "94511" {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}

func TestDiscoverRadiusOverride(t *testing.T) {
	svc := &fakeDiscoverService{}
	handler := NewDiscoverHandler(svc, nil)

	rec := httptest.NewRecorder()
	handler.Discover(rec, authedRequest(http.MethodGet, "/discover?radius=50", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if svc.gotRadius != 50 {
		t.Fatalf("want radius 50, got %d", svc.gotRadius)
	}
}

func TestDiscoverLocationOverride(t *testing.T) {
	svc := &fakeDiscoverService{}
	handler := NewDiscoverHandler(svc, nil)

	rec := httptest.NewRecorder()
	handler.Discover(rec, authedRequest(http.MethodGet, "/discover?location=94563&radius=25", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if svc.gotOrigin != "94563" || svc.gotRadius != 25 {
		t.Fatalf("service called with %q/%d", svc.gotOrigin, svc.gotRadius)
	}
}

func TestDiscoverBadLocation(t *testing.T) {
	svc := &fakeDiscoverService{err: fmt.Errorf("%w: location must be a 5-digit ZIP code", match.ErrValidation)}
	handler := NewDiscoverHandler(svc, nil)

	rec := httptest.NewRecorder()
	handler.Discover(rec, authedRequest(http.MethodGet, "/discover?location=not-a-zip", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "VALIDATION_ERROR") {
		t.Fatalf("want VALIDATION_ERROR code, got %s", rec.Body.String())
	}
}

func TestDiscoverBadRadius(t *testing.T) {
	handler := NewDiscoverHandler(&fakeDiscoverService{}, nil)

	for _, raw := range []string{"abc", "0", "-5"} {
		rec := httptest.NewRecorder()
		handler.Discover(rec, authedRequest(http.MethodGet, "/discover?radius="+raw, ""))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("radius %q: want 400, got %d", raw, rec.Code)
		}
	}
}

func TestDiscoverUpstreamDown(t *testing.T) {
	svc := &fakeDiscoverService{err: fmt.Errorf("%w: status 503", geo.ErrUpstream)}
	handler := NewDiscoverHandler(svc, nil)

	rec := httptest.NewRecorder()
	handler.Discover(rec, authedRequest(http.MethodGet, "/discover", ""))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "UPSTREAM_UNAVAILABLE") {
		t.Fatalf("want UPSTREAM_UNAVAILABLE code, got %s", rec.Body.String())
	}
}

func TestDiscoverUnknownUser(t *testing.T) {
	svc := &fakeDiscoverService{err: match.ErrUserNotFound}
	handler := NewDiscoverHandler(svc, nil)

	rec := httptest.NewRecorder()
	handler.Discover(rec, authedRequest(http.MethodGet, "/discover", ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}
