package geocoding

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, body string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeocodeCity_QueriesAndCaches(t *testing.T) {
	var calls int32
	srv := newTestServer(t, `[{"lat":"25.6872","lon":"32.6396"}]`, &calls)
	cacheDir := t.TempDir()

	g := NewGeocoder(logrus.New(), srv.URL, cacheDir)
	g.SetDelay(0)

	lat, lon, err := g.GeocodeCity("Luxor")
	require.NoError(t, err)
	assert.Equal(t, 25.6872, lat)
	assert.Equal(t, 32.6396, lon)

	_, _, err = g.GeocodeCity(" luxor ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// a new geocoder picks the answer up from disk
	reloaded := NewGeocoder(logrus.New(), srv.URL, cacheDir)
	reloaded.SetDelay(0)
	lat, _, err = reloaded.GeocodeCity("LUXOR")
	require.NoError(t, err)
	assert.Equal(t, 25.6872, lat)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGeocodeCity_NoResults(t *testing.T) {
	var calls int32
	srv := newTestServer(t, `[]`, &calls)

	g := NewGeocoder(logrus.New(), srv.URL, "")
	g.SetDelay(0)

	_, _, err := g.GeocodeCity("Nowhere")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestGeocodeCity_RemembersMisses(t *testing.T) {
	var calls int32
	srv := newTestServer(t, `[]`, &calls)

	now := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	g := NewGeocoder(logrus.New(), srv.URL, "")
	g.SetDelay(0)
	g.now = func() time.Time { return now }

	_, _, err := g.GeocodeCity("Nowhere")
	require.ErrorIs(t, err, ErrNoResults)

	_, _, err = g.GeocodeCity(" NOWHERE ")
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	now = now.Add(DefaultMissTTL)
	_, _, err = g.GeocodeCity("Nowhere")
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGeocodeCity_MissCacheDisabled(t *testing.T) {
	var calls int32
	srv := newTestServer(t, `[]`, &calls)

	g := NewGeocoder(logrus.New(), srv.URL, "")
	g.SetDelay(0)
	g.SetMissTTL(0)

	for i := 0; i < 3; i++ {
		_, _, err := g.GeocodeCity("Nowhere")
		assert.ErrorIs(t, err, ErrNoResults)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGeocodeCity_BadResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{`},
		{name: "bad latitude", body: `[{"lat":"north","lon":"1"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := newTestServer(t, tt.body, &calls)
			g := NewGeocoder(logrus.New(), srv.URL, "")
			g.SetDelay(0)

			_, _, err := g.GeocodeCity("Cairo")
			assert.Error(t, err)
		})
	}
}

func TestGeocodeCity_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGeocoder(nil, srv.URL, "")
	g.SetDelay(0)

	_, _, err := g.GeocodeCity("Cairo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	_, _, again := g.GeocodeCity("cairo")
	assert.Equal(t, err, again)
}

func TestGeocodeCity_EmptyName(t *testing.T) {
	g := NewGeocoder(nil, "", "")
	_, _, err := g.GeocodeCity("   ")
	assert.Error(t, err)
}
