package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/globefolio/internal/adapters/http"
	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/usecases"
	"github.com/samirrijal/globefolio/internal/pkg/geospatial"
)

// ---- Mock repositories ----

type mockPodcastRepo struct {
	listFn    func(ctx context.Context) ([]domain.Podcast, error)
	getByIDFn func(ctx context.Context, id string) (*domain.Podcast, error)
	searchFn  func(ctx context.Context, query string, limit int) ([]domain.Podcast, error)
	upsertFn  func(ctx context.Context, p *domain.Podcast) error
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockPodcastRepo) Upsert(ctx context.Context, p *domain.Podcast) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, p)
	}
	return nil
}
func (m *mockPodcastRepo) UpsertBatch(ctx context.Context, ps []domain.Podcast) error { return nil }
func (m *mockPodcastRepo) GetByID(ctx context.Context, id string) (*domain.Podcast, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("podcast %s: %w", id, domain.ErrNotFound)
}
func (m *mockPodcastRepo) List(ctx context.Context) ([]domain.Podcast, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockPodcastRepo) Search(ctx context.Context, query string, limit int) ([]domain.Podcast, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}
func (m *mockPodcastRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockEbookRepo struct {
	listFn    func(ctx context.Context) ([]domain.Ebook, error)
	getByIDFn func(ctx context.Context, id string) (*domain.Ebook, error)
	searchFn  func(ctx context.Context, query string, limit int) ([]domain.Ebook, error)
}

func (m *mockEbookRepo) Upsert(ctx context.Context, e *domain.Ebook) error       { return nil }
func (m *mockEbookRepo) UpsertBatch(ctx context.Context, es []domain.Ebook) error { return nil }
func (m *mockEbookRepo) GetByID(ctx context.Context, id string) (*domain.Ebook, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("ebook %s: %w", id, domain.ErrNotFound)
}
func (m *mockEbookRepo) List(ctx context.Context) ([]domain.Ebook, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockEbookRepo) Search(ctx context.Context, query string, limit int) ([]domain.Ebook, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

type mockLocator struct {
	locateFn func(ip net.IP) (domain.GeoPoint, string, error)
}

func (m *mockLocator) Locate(ip net.IP) (domain.GeoPoint, string, error) {
	return m.locateFn(ip)
}

// ---- Test helpers ----

var testMarkers = []domain.LabeledMarker{
	{ID: "nyc", Point: domain.GeoPoint{Lat: 40.7128, Lon: -74.006}, Label: "New York", Color: "#FF5252"},
	{ID: "london", Point: domain.GeoPoint{Lat: 51.5074, Lon: -0.1278}, Label: "London"},
	{ID: "tokyo", Point: domain.GeoPoint{Lat: 35.6762, Lon: 139.6503}, Label: "Tokyo"},
	{ID: "sydney", Point: domain.GeoPoint{Lat: -33.8688, Lon: 151.2093}, Label: "Sydney"},
}

func newGlobe(t *testing.T, locator *mockLocator) *usecases.GlobeService {
	t.Helper()
	cfg := usecases.GlobeConfig{GlobeRadius: 2, MarkerRadius: 2.1, Limits: geospatial.DefaultOrbitLimits()}
	var g *usecases.GlobeService
	var err error
	if locator != nil {
		g, err = usecases.NewGlobeService(testMarkers, cfg, locator)
	} else {
		g, err = usecases.NewGlobeService(testMarkers, cfg, nil)
	}
	if err != nil {
		t.Fatalf("globe: %v", err)
	}
	return g
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(t *testing.T, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	t.Helper()
	media := usecases.MediaURLs{BucketURL: "https://media.test"}
	d := &handler.Dependencies{
		Globe:    newGlobe(t, nil),
		Podcasts: usecases.NewPodcastService(&mockPodcastRepo{}, nil, nil, media),
		Ebooks:   usecases.NewEbookService(&mockEbookRepo{}, nil),
		Orbit: usecases.OrbiterConfig{
			RotationSpeed: 0.1,
			FrameInterval: 100 * time.Millisecond,
			Camera:        domain.Vec3{Z: 5},
		},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func decodeError(t *testing.T, body io.Reader) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.NewDecoder(body).Decode(&apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}

func samplePodcasts(n int) []domain.Podcast {
	out := make([]domain.Podcast, n)
	for i := range out {
		out[i] = domain.Podcast{
			ID:              fmt.Sprintf("ep-%d", i),
			Title:           fmt.Sprintf("Episode %d", i),
			DurationSeconds: 3600 + i*60,
			FileSize:        52428800,
		}
	}
	return out
}

// ---- Globe handler tests ----

func TestListMarkers_Success(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/globe/markers", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var markers []domain.LabeledMarker
	json.NewDecoder(resp.Body).Decode(&markers)
	if len(markers) != len(testMarkers) {
		t.Fatalf("expected %d markers, got %d", len(testMarkers), len(markers))
	}
	if markers[0].ID != "nyc" {
		t.Errorf("expected catalog order, first marker %q", markers[0].ID)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

func TestGetMarker_NotFound(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/globe/markers/atlantis", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if apiErr := decodeError(t, resp.Body); apiErr.Code != "not_found" {
		t.Errorf("expected not_found, got %s", apiErr.Code)
	}
}

func TestNearestMarkers(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/globe/markers/nyc/nearest?limit=1", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var nearby []domain.NearbyMarker
	json.NewDecoder(resp.Body).Decode(&nearby)
	if len(nearby) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(nearby))
	}
	if nearby[0].Marker.ID != "london" {
		t.Errorf("expected london nearest to nyc, got %s", nearby[0].Marker.ID)
	}
	if nearby[0].DistanceKm < 5500 || nearby[0].DistanceKm > 5650 {
		t.Errorf("unexpected distance %.1f km", nearby[0].DistanceKm)
	}
}

func TestProject_PrimeMeridianEquator(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/globe/project?lat=0&lon=0&radius=2", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out handler.ProjectResponse
	json.NewDecoder(resp.Body).Decode(&out)
	if d := out.Position.Sub(domain.Vec3{X: 2}).Len(); d > 1e-9 {
		t.Errorf("expected (2,0,0), got %+v", out.Position)
	}
	if out.FrontFacing != nil {
		t.Error("front_facing should be omitted without a viewpoint")
	}
}

func TestProject_DefaultRadiusAndViewpoint(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/globe/project?lat=40.7128&lon=-74.006&cx=0&cy=0&cz=5", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out handler.ProjectResponse
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Radius != 2.1 {
		t.Errorf("expected marker radius 2.1, got %g", out.Radius)
	}
	if out.FrontFacing == nil || !*out.FrontFacing {
		t.Error("New York should face the default camera")
	}
}

func TestProject_BadInput(t *testing.T) {
	app := setupApp(makeDeps(t))

	for _, u := range []string{
		"/v1/globe/project?lon=0",
		"/v1/globe/project?lat=abc&lon=0",
		"/v1/globe/project?lat=91&lon=0",
		"/v1/globe/project?lat=0&lon=0&radius=-1",
		"/v1/globe/project?lat=0&lon=0&cx=1",
		"/v1/globe/project?lat=10&lon=10&radius=NaN",
		"/v1/globe/project?lat=10&lon=10&radius=Inf",
		"/v1/globe/project?lat=NaN&lon=10",
		"/v1/globe/project?lat=10&lon=10&cx=0&cy=0&cz=0",
		"/v1/globe/project?lat=10&lon=10&cx=NaN&cy=0&cz=5",
	} {
		resp, _ := app.Test(httptest.NewRequest("GET", u, nil), -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", u, resp.StatusCode)
		}
	}
}

func TestFrame_DefaultCamera(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/globe/frame", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("frames must not be cached, got %q", cc)
	}

	var f domain.Frame
	json.NewDecoder(resp.Body).Decode(&f)
	if len(f.Placements) != len(testMarkers) {
		t.Fatalf("expected %d placements, got %d", len(testMarkers), len(f.Placements))
	}
	facing := map[string]bool{}
	for _, p := range f.Placements {
		facing[p.Marker.ID] = p.FrontFacing
	}
	if !facing["nyc"] || facing["tokyo"] || facing["sydney"] || facing["london"] {
		t.Errorf("unexpected visibility %v", facing)
	}
	if f.Visible != 1 {
		t.Errorf("expected 1 visible, got %d", f.Visible)
	}
}

func TestFrame_CameraAtOrigin(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/globe/frame?cx=0&cy=0&cz=0", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestFrame_NonFiniteInput(t *testing.T) {
	app := setupApp(makeDeps(t))

	for _, u := range []string{
		"/v1/globe/frame?cx=NaN&cy=0&cz=5",
		"/v1/globe/frame?cx=0&cy=0&cz=Inf",
		"/v1/globe/frame?rotation=NaN",
	} {
		resp, _ := app.Test(httptest.NewRequest("GET", u, nil), -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", u, resp.StatusCode)
		}
	}
}

func TestLocate_Disabled(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/globe/locate?ip=81.9.0.1", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 without a geoip database, got %d", resp.StatusCode)
	}
}

func TestLocate_Success(t *testing.T) {
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.Globe = newGlobe(t, &mockLocator{
			locateFn: func(ip net.IP) (domain.GeoPoint, string, error) {
				return domain.GeoPoint{Lat: 43.263, Lon: -2.935}, "Bilbao", nil
			},
		})
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/globe/locate?ip=81.9.0.1", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var p domain.MarkerPlacement
	json.NewDecoder(resp.Body).Decode(&p)
	if p.Marker.ID != usecases.YouAreHereID || p.Marker.Label != "Bilbao" {
		t.Errorf("unexpected marker %+v", p.Marker)
	}
}

func TestLocate_BadIP(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/globe/locate?ip=not-an-ip", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Podcast handler tests ----

func TestListPodcasts_Pagination(t *testing.T) {
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.Podcasts = usecases.NewPodcastService(&mockPodcastRepo{
			listFn: func(ctx context.Context) ([]domain.Podcast, error) { return samplePodcasts(5), nil },
		}, nil, nil, usecases.MediaURLs{BucketURL: "https://media.test"})
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/podcasts?offset=2&limit=2", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []handler.PodcastView `json:"data"`
		Pagination handler.Pagination    `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 5 || result.Pagination.Offset != 2 {
		t.Errorf("unexpected pagination %+v", result.Pagination)
	}
	if len(result.Data) != 2 {
		t.Fatalf("expected 2 episodes in page, got %d", len(result.Data))
	}
	ep := result.Data[0]
	if ep.ID != "ep-2" {
		t.Errorf("expected ep-2, got %s", ep.ID)
	}
	if ep.DurationText != "1h 2m" || ep.FileSizeText != "50.0 MB" {
		t.Errorf("unexpected display fields %q %q", ep.DurationText, ep.FileSizeText)
	}
	if ep.AudioURL != "https://media.test/podcasts/ep-2.mp3" {
		t.Errorf("unexpected audio url %s", ep.AudioURL)
	}

	link := resp.Header.Get("Link")
	for _, rel := range []string{`rel="first"`, `rel="prev"`, `rel="next"`, `rel="last"`} {
		if !strings.Contains(link, rel) {
			t.Errorf("expected %s in Link header, got %s", rel, link)
		}
	}
}

func TestListPodcasts_QueryUsesSearch(t *testing.T) {
	var gotQuery string
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.Podcasts = usecases.NewPodcastService(&mockPodcastRepo{
			listFn: func(ctx context.Context) ([]domain.Podcast, error) {
				t.Error("list should not be called with a query")
				return nil, nil
			},
			searchFn: func(ctx context.Context, query string, limit int) ([]domain.Podcast, error) {
				gotQuery = query
				return samplePodcasts(1), nil
			},
		}, nil, nil, usecases.MediaURLs{})
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/podcasts?q=Tech", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotQuery != "Tech" {
		t.Errorf("expected query Tech, got %q", gotQuery)
	}
}

// linkQueries maps each rel of a Link header to the query of its target.
func linkQueries(t *testing.T, header string) map[string]url.Values {
	t.Helper()
	out := map[string]url.Values{}
	for _, part := range strings.Split(header, ", ") {
		start, end := strings.Index(part, "<"), strings.Index(part, ">")
		relAt := strings.Index(part, `rel="`)
		if start < 0 || end < start || relAt < 0 {
			t.Fatalf("malformed link %q", part)
		}
		u, err := url.Parse(part[start+1 : end])
		if err != nil {
			t.Fatalf("parse link %q: %v", part, err)
		}
		rel := strings.TrimSuffix(part[relAt+len(`rel="`):], `"`)
		out[rel] = u.Query()
	}
	return out
}

func TestListPodcasts_LinksKeepQuery(t *testing.T) {
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.Podcasts = usecases.NewPodcastService(&mockPodcastRepo{
			searchFn: func(ctx context.Context, query string, limit int) ([]domain.Podcast, error) {
				return samplePodcasts(50), nil
			},
		}, nil, nil, usecases.MediaURLs{})
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/podcasts?q=Tech&limit=10", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	links := linkQueries(t, resp.Header.Get("Link"))
	want := map[string]string{"first": "0", "next": "10", "last": "40"}
	for rel, offset := range want {
		q, ok := links[rel]
		if !ok {
			t.Errorf("missing rel=%q in %v", rel, links)
			continue
		}
		if q.Get("q") != "Tech" {
			t.Errorf("rel=%q dropped the search query: %v", rel, q)
		}
		if q.Get("offset") != offset || q.Get("limit") != "10" {
			t.Errorf("rel=%q: expected offset=%s limit=10, got %v", rel, offset, q)
		}
		if len(q["offset"]) != 1 || len(q["limit"]) != 1 {
			t.Errorf("rel=%q repeats paging parameters: %v", rel, q)
		}
	}
	if _, ok := links["prev"]; ok {
		t.Error("first page should not link to prev")
	}
}

func TestListEbooks_LinksKeepQuery(t *testing.T) {
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.Ebooks = usecases.NewEbookService(&mockEbookRepo{
			searchFn: func(ctx context.Context, query string, limit int) ([]domain.Ebook, error) {
				return []domain.Ebook{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ebooks?q=go&offset=1&limit=1", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	links := linkQueries(t, resp.Header.Get("Link"))
	for _, rel := range []string{"first", "prev", "next", "last"} {
		if got := links[rel].Get("q"); got != "go" {
			t.Errorf("rel=%q: expected q=go, got %q", rel, got)
		}
	}
	if got := links["next"].Get("offset"); got != "2" {
		t.Errorf("expected next offset 2, got %s", got)
	}
}

func TestSearchPodcasts_Deprecated(t *testing.T) {
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.Podcasts = usecases.NewPodcastService(&mockPodcastRepo{
			searchFn: func(ctx context.Context, query string, limit int) ([]domain.Podcast, error) {
				return samplePodcasts(2), nil
			},
		}, nil, nil, usecases.MediaURLs{})
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/podcasts/search?q=design", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header")
	}
	if resp.Header.Get("Sunset") == "" {
		t.Error("expected Sunset header")
	}
	if !strings.Contains(resp.Header.Get("Link"), "successor-version") {
		t.Errorf("expected successor link, got %q", resp.Header.Get("Link"))
	}

	var eps []handler.PodcastView
	json.NewDecoder(resp.Body).Decode(&eps)
	if len(eps) != 2 {
		t.Errorf("expected 2 episodes, got %d", len(eps))
	}
}

func TestSearchPodcasts_MissingQuery(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/podcasts/search", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetPodcast_NotFound(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/podcasts/missing", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetPodcast_Success(t *testing.T) {
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.Podcasts = usecases.NewPodcastService(&mockPodcastRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Podcast, error) {
				return &domain.Podcast{ID: id, Title: "Design Systems", DurationSeconds: 2700}, nil
			},
		}, nil, nil, usecases.MediaURLs{})
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/podcasts/ep-3", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var ep handler.PodcastView
	json.NewDecoder(resp.Body).Decode(&ep)
	if ep.Title != "Design Systems" || ep.DurationText != "45m" {
		t.Errorf("unexpected episode %+v", ep)
	}
}

func publishRequest(body, token string) *http.Request {
	req := httptest.NewRequest("POST", "/v1/podcasts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestPublishPodcast_Auth(t *testing.T) {
	body := `{"id":"ep-9","title":"New","duration":600}`

	// Writes disabled
	app := setupApp(makeDeps(t))
	resp, _ := app.Test(publishRequest(body, "secret"), -1)
	if resp.StatusCode != 403 {
		t.Errorf("expected 403 with writes disabled, got %d", resp.StatusCode)
	}

	// Wrong token
	app = setupApp(makeDeps(t, func(d *handler.Dependencies) { d.AdminToken = "secret" }))
	resp, _ = app.Test(publishRequest(body, "wrong"), -1)
	if resp.StatusCode != 401 {
		t.Errorf("expected 401 with wrong token, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(publishRequest(body, ""), -1)
	if resp.StatusCode != 401 {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestPublishPodcast_Inline(t *testing.T) {
	var stored *domain.Podcast
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.AdminToken = "secret"
		d.Podcasts = usecases.NewPodcastService(&mockPodcastRepo{
			upsertFn: func(ctx context.Context, p *domain.Podcast) error {
				stored = p
				return nil
			},
		}, nil, nil, usecases.MediaURLs{BucketURL: "https://media.test"})
	})
	app := setupApp(deps)

	resp, _ := app.Test(publishRequest(`{"id":"ep-9","title":"New","duration":600}`, "secret"), -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if stored == nil || stored.ID != "ep-9" {
		t.Fatalf("episode not stored: %+v", stored)
	}
	if stored.ThumbnailURL != "https://media.test/thumbnails/ep-9.jpg" {
		t.Errorf("unexpected thumbnail url %s", stored.ThumbnailURL)
	}
}

func TestPublishPodcast_Invalid(t *testing.T) {
	app := setupApp(makeDeps(t, func(d *handler.Dependencies) { d.AdminToken = "secret" }))

	resp, _ := app.Test(publishRequest(`{"id":"ep-9","duration":-5}`, "secret"), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	apiErr := decodeError(t, resp.Body)
	if !strings.Contains(apiErr.Message, "title is required") || !strings.Contains(apiErr.Message, "duration must not be negative") {
		t.Errorf("expected every validation error, got %q", apiErr.Message)
	}
}

func TestDeletePodcast(t *testing.T) {
	var deleted string
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.AdminToken = "secret"
		d.Podcasts = usecases.NewPodcastService(&mockPodcastRepo{
			deleteFn: func(ctx context.Context, id string) error {
				deleted = id
				return nil
			},
		}, nil, nil, usecases.MediaURLs{})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("DELETE", "/v1/podcasts/ep-1", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if deleted != "ep-1" {
		t.Errorf("expected ep-1 deleted, got %q", deleted)
	}
}

// ---- Ebook handler tests ----

func TestGetEbook_OmitsContent(t *testing.T) {
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.Ebooks = usecases.NewEbookService(&mockEbookRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Ebook, error) {
				return &domain.Ebook{ID: id, Title: "Go Patterns", Content: "# Go\n\nsome words here"}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ebooks/go-patterns", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp.Body)
	if strings.Contains(string(body), "some words here") {
		t.Error("metadata response should not carry content")
	}
	var e domain.Ebook
	json.Unmarshal(body, &e)
	if e.ReadingTime != 1 {
		t.Errorf("expected reading time 1, got %d", e.ReadingTime)
	}
}

func TestEbookContent(t *testing.T) {
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.Ebooks = usecases.NewEbookService(&mockEbookRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Ebook, error) {
				return &domain.Ebook{ID: id, Title: "Go Patterns", Content: "# Go Patterns"}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ebooks/go-patterns/content", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("expected markdown content type, got %q", ct)
	}
	if got := string(readBody(t, resp.Body)); got != "# Go Patterns" {
		t.Errorf("unexpected body %q", got)
	}
}

func TestListEbooks_Empty(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ebooks", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result struct {
		Data []domain.Ebook `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Data == nil || len(result.Data) != 0 {
		t.Errorf("expected empty list, got %v", result.Data)
	}
}

// ---- GraphQL ----

func TestGraphQL_MarkersAndPodcasts(t *testing.T) {
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.Podcasts = usecases.NewPodcastService(&mockPodcastRepo{
			listFn: func(ctx context.Context) ([]domain.Podcast, error) { return samplePodcasts(1), nil },
		}, nil, nil, usecases.MediaURLs{})
	})
	app := setupApp(deps)

	body := `{"query":"{ markers { id label } podcasts { id duration_text } frame { visible } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Markers  []struct{ ID, Label string }
			Podcasts []struct {
				ID           string `json:"id"`
				DurationText string `json:"duration_text"`
			}
			Frame struct{ Visible int }
		}
		Errors []interface{}
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Errors) > 0 {
		t.Fatalf("graphql errors: %v", result.Errors)
	}
	if len(result.Data.Markers) != len(testMarkers) {
		t.Errorf("expected %d markers, got %d", len(testMarkers), len(result.Data.Markers))
	}
	if len(result.Data.Podcasts) != 1 || result.Data.Podcasts[0].DurationText != "1h 0m" {
		t.Errorf("unexpected podcasts %+v", result.Data.Podcasts)
	}
	if result.Data.Frame.Visible != 1 {
		t.Errorf("expected 1 visible marker, got %d", result.Data.Frame.Visible)
	}
}

// ---- Cross-cutting ----

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if v := resp.Header.Get("X-API-Version"); v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

func TestReady_NoDatabase(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503 without a database, got %d", resp.StatusCode)
	}
}

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/globe/markers", nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", "/v1/globe/markers", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/ws", nil), -1)
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("expected 426, got %d", resp.StatusCode)
	}
}

// TestAccessLogMiddleware verifies structured access logging is emitted.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp.Body); !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}
