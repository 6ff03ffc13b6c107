package board

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/josephgoksu/BoardWing/models"
	"github.com/josephgoksu/BoardWing/trello"
)

// testNow is a Wednesday at noon.
var testNow = time.Date(2025, time.January, 8, 12, 0, 0, 0, time.Local)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
}

// fakeTrello is an httptest-backed API double. Routes map
// "METHOD /path" to a canned JSON body; unrouted requests answer "{}".
type fakeTrello struct {
	t  *testing.T
	mu sync.Mutex

	requests []recordedRequest
	routes   map[string]string
}

func newFakeTrello(t *testing.T) *fakeTrello {
	return &fakeTrello{t: t, routes: make(map[string]string)}
}

func (f *fakeTrello) route(method, path, body string) {
	f.routes[method+" "+path] = body
}

func (f *fakeTrello) controller(model *models.BoardModel) *Controller {
	f.t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
		})
		body, ok := f.routes[r.Method+" "+r.URL.Path]
		f.mu.Unlock()
		if !ok {
			body = "{}"
		}
		_, _ = w.Write([]byte(body))
	}))
	f.t.Cleanup(server.Close)

	client := trello.NewClient("k", "t", nil)
	client.BaseURL = server.URL
	return NewController(model, client, nil).
		WithFs(afero.NewMemMapFs()).
		WithClock(func() time.Time { return testNow })
}

// calls returns the recorded requests matching method (or all when "").
func (f *fakeTrello) calls(method string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if method == "" {
		return append([]recordedRequest(nil), f.requests...)
	}
	var out []recordedRequest
	for _, req := range f.requests {
		if req.Method == method {
			out = append(out, req)
		}
	}
	return out
}

func testCard(id, name string) *models.Card {
	return &models.Card{ID: id, Name: name, ShortURL: "https://trello.com/c/" + id}
}

func datedCard(id, name string, due time.Time) *models.Card {
	c := testCard(id, name)
	c.Due = &due
	return c
}
