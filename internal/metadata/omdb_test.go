package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/SeriesMoodRecap/internal/models"
)

func newTestServer(t *testing.T, handler func(t *testing.T, q url.Values) (int, string)) (*httptest.Server, *[]url.Values) {
	t.Helper()
	var seen []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		seen = append(seen, r.URL.Query())
		status, body := handler(t, r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestSearchSeriesSendsSeriesFilter(t *testing.T) {
	srv, seen := newTestServer(t, func(t *testing.T, q url.Values) (int, string) {
		return http.StatusOK, `{"Search":[
			{"Title":"Breaking Bad","Year":"2008–2013","imdbID":"tt0903747","Type":"series","Poster":"https://img/bb.jpg"},
			{"Title":"Breaking Bad: Original Minisodes","Year":"2009–2011","imdbID":"tt1520211","Type":"series","Poster":"N/A"}
		],"totalResults":"2","Response":"True"}`
	})

	client := NewOMDbClient(srv.URL+"/", "secret", nil)
	resp, err := client.SearchSeries(context.Background(), "Breaking Bad")
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	q := (*seen)[0]
	assert.Equal(t, "Breaking Bad", q.Get("s"))
	assert.Equal(t, "series", q.Get("type"))
	assert.Equal(t, "secret", q.Get("apikey"))

	assert.True(t, resp.OK())
	list := resp.Candidates()
	require.Len(t, list, 2)
	assert.Equal(t, models.Candidate{ID: "tt0903747", Title: "Breaking Bad", Year: "2008–2013", Poster: "https://img/bb.jpg", Type: "series"}, list[0])
	assert.Equal(t, "tt1520211", list[1].ID)
	assert.False(t, list[1].HasPoster())
}

func TestSearchSeriesProviderFailureIsNotAnError(t *testing.T) {
	srv, _ := newTestServer(t, func(t *testing.T, q url.Values) (int, string) {
		return http.StatusOK, `{"Response":"False","Error":"Series not found!"}`
	})

	resp, err := NewOMDbClient(srv.URL, "k", nil).SearchSeries(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, "Series not found!", resp.Error)
	assert.Empty(t, resp.Candidates())
}

func TestNon2xxIsTransportError(t *testing.T) {
	srv, _ := newTestServer(t, func(t *testing.T, q url.Values) (int, string) {
		return http.StatusUnauthorized, `{"Response":"False","Error":"Invalid API key!"}`
	})

	_, err := NewOMDbClient(srv.URL, "bad", nil).SearchSeries(context.Background(), "Dark")
	require.Error(t, err)
	assert.Equal(t, "OMDb API error: Unauthorized", err.Error())
}

func TestMalformedBodyIsTransportError(t *testing.T) {
	srv, _ := newTestServer(t, func(t *testing.T, q url.Values) (int, string) {
		return http.StatusOK, `<html>oops</html>`
	})

	_, err := NewOMDbClient(srv.URL, "k", nil).GetSeries(context.Background(), "tt1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse OMDb response")
}

func TestNetworkErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewOMDbClient(base, "super-secret-key", nil).SearchSeries(context.Background(), "Dark")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OMDb request failed")
	assert.NotContains(t, err.Error(), "super-secret-key")
}

func TestGetSeriesRequestsFullPlot(t *testing.T) {
	srv, seen := newTestServer(t, func(t *testing.T, q url.Values) (int, string) {
		return http.StatusOK, `{"Title":"Breaking Bad","Year":"2008–2013","Rated":"TV-MA","Runtime":"49 min",
			"Genre":"Crime, Drama, Thriller","Actors":"Bryan Cranston","Plot":"A chemistry instructor turned meth cook.",
			"Poster":"N/A","imdbRating":"9.5","imdbID":"tt0903747","Type":"series","totalSeasons":"5","Response":"True"}`
	})

	resp, err := NewOMDbClient(srv.URL, "k", nil).GetSeries(context.Background(), "tt0903747")
	require.NoError(t, err)

	q := (*seen)[0]
	assert.Equal(t, "tt0903747", q.Get("i"))
	assert.Equal(t, "full", q.Get("plot"))
	assert.Equal(t, "k", q.Get("apikey"))

	require.True(t, resp.OK())
	detail := resp.Detail("ignored")
	assert.Equal(t, "tt0903747", detail.ID)
	assert.Equal(t, "A chemistry instructor turned meth cook.", detail.Plot)
	assert.Equal(t, "Crime, Drama, Thriller", detail.Genre)
	assert.Equal(t, "", detail.Poster)
	assert.Equal(t, "5", detail.TotalSeasons)
}

func TestDetailFallsBackToRequestedID(t *testing.T) {
	resp := &DetailResponse{Title: "Dark", Plot: "N/A", Response: "True"}
	detail := resp.Detail("tt5753856")
	assert.Equal(t, "tt5753856", detail.ID)
	assert.Empty(t, detail.Plot)
}
