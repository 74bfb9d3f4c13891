// Package metadata talks to the OMDb-style metadata provider.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/Corphon/SeriesMoodRecap/internal/models"
)

// MediaTypeSeries restricts searches to TV series.
const MediaTypeSeries = "series"

// SearchResponse is the raw payload of a title search.
type SearchResponse struct {
	Search       []SearchHit `json:"Search"`
	TotalResults string      `json:"totalResults"`
	Response     string      `json:"Response"`
	Error        string      `json:"Error"`
}

// SearchHit is one element of SearchResponse.Search.
type SearchHit struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDBID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// DetailResponse is the raw payload of a lookup by id.
type DetailResponse struct {
	Title        string `json:"Title"`
	Year         string `json:"Year"`
	Rated        string `json:"Rated"`
	Runtime      string `json:"Runtime"`
	Genre        string `json:"Genre"`
	Actors       string `json:"Actors"`
	Plot         string `json:"Plot"`
	Poster       string `json:"Poster"`
	IMDBRating   string `json:"imdbRating"`
	IMDBID       string `json:"imdbID"`
	Type         string `json:"Type"`
	TotalSeasons string `json:"totalSeasons"`
	Response     string `json:"Response"`
	Error        string `json:"Error"`
}

// OK reports the provider's own success flag.
func (r *SearchResponse) OK() bool {
	return r != nil && r.Response == "True"
}

// OK reports the provider's own success flag.
func (r *DetailResponse) OK() bool {
	return r != nil && r.Response == "True"
}

// Candidates converts the hits in provider order.
func (r *SearchResponse) Candidates() models.CandidateList {
	list := make(models.CandidateList, 0, len(r.Search))
	for _, hit := range r.Search {
		list = append(list, models.Candidate{
			ID:     hit.IMDBID,
			Title:  hit.Title,
			Year:   models.NormalizeSentinel(hit.Year),
			Poster: models.NormalizeSentinel(hit.Poster),
			Type:   hit.Type,
		})
	}
	return list
}

// Detail converts the payload, dropping "N/A" sentinels. id is used when the
// provider omits imdbID.
func (r *DetailResponse) Detail(id string) *models.SeriesDetail {
	if r.IMDBID != "" {
		id = r.IMDBID
	}
	return &models.SeriesDetail{
		ID:           id,
		Title:        r.Title,
		Plot:         models.NormalizeSentinel(r.Plot),
		Genre:        models.NormalizeSentinel(r.Genre),
		Year:         models.NormalizeSentinel(r.Year),
		Poster:       models.NormalizeSentinel(r.Poster),
		Rated:        models.NormalizeSentinel(r.Rated),
		Runtime:      models.NormalizeSentinel(r.Runtime),
		Actors:       models.NormalizeSentinel(r.Actors),
		TotalSeasons: models.NormalizeSentinel(r.TotalSeasons),
		IMDBRating:   models.NormalizeSentinel(r.IMDBRating),
	}
}

// OMDbClient handles interactions with the metadata API.
type OMDbClient struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

// NewOMDbClient builds a client. httpClient may be nil, in which case a
// plain client with transport defaults is used.
func NewOMDbClient(baseURL, apiKey string, httpClient *http.Client) *OMDbClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OMDbClient{
		client:  httpClient,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SearchSeries runs a free-text search restricted to series. A non-nil
// error means transport failure; provider failures come back in the payload.
func (c *OMDbClient) SearchSeries(ctx context.Context, query string) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("s", query)
	params.Set("type", MediaTypeSeries)
	params.Set("apikey", c.apiKey)

	var result SearchResponse
	if err := c.get(ctx, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSeries fetches the full-plot record for one id.
func (c *OMDbClient) GetSeries(ctx context.Context, id string) (*DetailResponse, error) {
	params := url.Values{}
	params.Set("i", id)
	params.Set("plot", "full")
	params.Set("apikey", c.apiKey)

	var result DetailResponse
	if err := c.get(ctx, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *OMDbClient) get(ctx context.Context, params url.Values, target interface{}) error {
	endpoint := fmt.Sprintf("%s/?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "build OMDb request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(stripURL(err), "OMDb request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return errors.Errorf("OMDb API error: %s", http.StatusText(resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errors.Wrap(err, "failed to parse OMDb response")
	}
	return nil
}

// stripURL drops the request URL from client errors; it carries the API key.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
