package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeocoder(t *testing.T, handler http.HandlerFunc, cacheDir string) (*Geocoder, *int32) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return NewGeocoder(Config{BaseURL: server.URL, CountryCodes: "gb", CacheDir: cacheDir}, logger), &calls
}

func TestGeocodeAddress(t *testing.T) {
	g, calls := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "1 Quay Street, BS1 4DJ, Bristol", r.URL.Query().Get("q"))
		assert.Equal(t, "gb", r.URL.Query().Get("countrycodes"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"lat":"51.4545","lon":"-2.5879"}]`))
	}, "")

	lat, lon, err := g.GeocodeAddress(context.Background(), "1 Quay Street", "BS1 4DJ", "Bristol")
	require.NoError(t, err)
	assert.InDelta(t, 51.4545, lat, 1e-9)
	assert.InDelta(t, -2.5879, lon, 1e-9)

	// second lookup is served from the cache
	_, _, err = g.GeocodeAddress(context.Background(), "1 quay street", "bs1 4dj", "bristol")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestGeocodeAddressNoResults(t *testing.T) {
	g, _ := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}, "")

	_, _, err := g.GeocodeAddress(context.Background(), "Nowhere Lane", "", "Atlantis")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestGeocodeAddressUpstreamError(t *testing.T) {
	g, _ := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, "")

	_, _, err := g.GeocodeAddress(context.Background(), "1 Quay Street", "", "Bristol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	_, _, err = g.GeocodeAddress(context.Background(), " ", "", "")
	assert.Error(t, err)
}

func TestGeocodeCachePersists(t *testing.T) {
	dir := t.TempDir()
	g, _ := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"52.1","lon":"4.3"}]`))
	}, dir)
	_, _, err := g.GeocodeAddress(context.Background(), "Main Street 1", "", "Leiden")
	require.NoError(t, err)

	reloaded, calls := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, dir)
	lat, lon, err := reloaded.GeocodeAddress(context.Background(), "Main Street 1", "", "Leiden")
	require.NoError(t, err)
	assert.Equal(t, 52.1, lat)
	assert.Equal(t, 4.3, lon)
	assert.Zero(t, atomic.LoadInt32(calls))
}
