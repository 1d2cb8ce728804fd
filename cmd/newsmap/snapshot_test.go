package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/couchcryptid/insurance-news-map/internal/config"
	"github.com/couchcryptid/insurance-news-map/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Loss wire</title>
    <item>
      <title>Hurricane damage in Fort Myers, Florida</title>
      <link>https://news.example.com/fort-myers</link>
      <pubDate>Sat, 01 Mar 2025 09:30:00 GMT</pubDate>
      <description>&lt;p&gt;Insured losses climb.&lt;/p&gt;</description>
    </item>
    <item>
      <title>Quarterly results published</title>
      <link>https://news.example.com/results</link>
      <pubDate>Sat, 01 Mar 2025 08:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeed)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGeocodeServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"lat":"26.6406","lon":"-81.8723","display_name":"Fort Myers, Lee County, Florida"}]`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeSources(t *testing.T, feedURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	body := fmt.Sprintf(`sources:
  - name: Loss Wire
    kind: feed
    prefix: lw
    url: %s
    category: Major Loss
`, feedURL)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSnapshotCommand(t *testing.T) {
	var geocodes atomic.Int32
	feedSrv := newFeedServer(t)
	geoSrv := newGeocodeServer(t, &geocodes)

	t.Setenv("SOURCES_FILE", writeSources(t, feedSrv.URL))
	t.Setenv("GEOCODE_URL", geoSrv.URL)
	t.Setenv("GEOCODE_INTERVAL", "0s")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"snapshot"})

	require.NoError(t, root.Execute())

	var articles []domain.EnrichedArticle
	require.NoError(t, json.Unmarshal(out.Bytes(), &articles))

	// The second item names no place and is dropped.
	require.Len(t, articles, 1)
	first := articles[0]
	assert.Equal(t, "lw-0-https://news.example.com/fort-myers", first.ID)
	assert.Equal(t, domain.MajorLoss, first.Category)
	assert.Equal(t, "Loss Wire", first.SourceName)
	assert.Equal(t, "Fort Myers, Florida", first.LocationName)
	assert.InDelta(t, 26.6406, first.Latitude, 1e-9)
	assert.InDelta(t, -81.8723, first.Longitude, 1e-9)
	assert.Equal(t, int32(1), geocodes.Load())
}

func TestSnapshotCommandFailsWhenAllSourcesFail(t *testing.T) {
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(feedSrv.Close)

	t.Setenv("SOURCES_FILE", writeSources(t, feedSrv.URL))
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")

	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"snapshot"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build news payload")
}

func TestBuildSources(t *testing.T) {
	sources, err := buildSources(&config.Config{Sources: config.DefaultSources()})
	require.NoError(t, err)

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	assert.Equal(t, []string{"Google News (gnl)", "Google News (gnm)", "Haggie Partners (hp)"}, names)
}

func TestBuildSourcesUnknownKind(t *testing.T) {
	_, err := buildSources(&config.Config{Sources: []config.SourceConfig{
		{Name: "Mystery", Kind: "carrier-pigeon", Prefix: "mp", URL: "https://example.com"},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}
