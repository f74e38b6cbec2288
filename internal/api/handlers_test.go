package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anayasa/internal/domain"
	"anayasa/internal/service"
)

type fakeEngine struct {
	ready bool
	err   error
	asked []string
}

var units = []domain.Unit{
	{Label: "Article 1 —", Body: "Turkey is a republic.", Ordinal: 0},
	{Label: "Article 3 —", Body: "Its capital is Ankara.", Ordinal: 1},
}

func (f *fakeEngine) Ask(_ context.Context, q string) (*service.Answer, error) {
	f.asked = append(f.asked, q)
	if f.err != nil {
		return nil, f.err
	}
	return &service.Answer{
		Text:    "Turkey is a republic (Article 1).",
		Sources: []domain.SearchResult{{Unit: units[0], Score: 0.91}, {Unit: units[1], Score: 0.12}},
	}, nil
}

func (f *fakeEngine) Units() []domain.Unit {
	if !f.ready {
		return nil
	}
	return units
}
func (f *fakeEngine) Ready() bool         { return f.ready }
func (f *fakeEngine) Fingerprint() string { return "abc123" }

func newApp(e Engine) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, e)
	return app
}

func postAsk(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAsk_OK(t *testing.T) {
	eng := &fakeEngine{ready: true}
	resp := postAsk(t, newApp(eng), `{"question":"What is the form of the state?"}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got askResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Turkey is a republic (Article 1).", got.Answer)
	assert.Equal(t, []source{{Label: "Article 1 —", Score: 0.91}, {Label: "Article 3 —", Score: 0.12}}, got.Sources)
	assert.Equal(t, []string{"What is the form of the state?"}, eng.asked)
}

func TestAsk_BadRequest(t *testing.T) {
	for _, body := range []string{`{}`, `{"question":"   "}`, `not json`} {
		eng := &fakeEngine{ready: true}
		resp := postAsk(t, newApp(eng), body)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Empty(t, eng.asked)
	}
}

func TestAsk_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotReady, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: embed question: boom", domain.ErrRetrieval), http.StatusBadGateway},
		{fmt.Errorf("%w: upstream 503", domain.ErrGeneration), http.StatusBadGateway},
		{fmt.Errorf("%w: %w", domain.ErrGeneration, context.DeadlineExceeded), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("unexpected"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		resp := postAsk(t, newApp(&fakeEngine{ready: true, err: tt.err}), `{"question":"q"}`)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, tt.want, resp.StatusCode, tt.err.Error())
		assert.Contains(t, string(body), tt.err.Error())
	}
}

func TestHealth(t *testing.T) {
	resp, err := newApp(&fakeEngine{}).Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = newApp(&fakeEngine{ready: true}).Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "ok", got["status"])
	assert.EqualValues(t, 2, got["articles"])
	assert.Equal(t, "abc123", got["corpus"])
}

func TestArticles(t *testing.T) {
	resp, err := newApp(&fakeEngine{ready: true}).Test(httptest.NewRequest(http.MethodGet, "/articles", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var got []article
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "Article 3 —", got[1].Label)
	assert.Equal(t, 1, got[1].Ordinal)
}
