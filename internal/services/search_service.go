// internal/services/search_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/Corphon/SeriesMoodRecap/internal/errors"
	"github.com/Corphon/SeriesMoodRecap/internal/metadata"
	"github.com/Corphon/SeriesMoodRecap/internal/models"
	"github.com/Corphon/SeriesMoodRecap/internal/utils"
)

// SeriesLookup is the metadata provider as seen by the search and detail
// services. A returned error means transport failure; provider-reported
// failures come back in the payload's Response/Error fields.
type SeriesLookup interface {
	SearchSeries(ctx context.Context, query string) (*metadata.SearchResponse, error)
	GetSeries(ctx context.Context, id string) (*metadata.DetailResponse, error)
}

// SearchService resolves a free-text query into candidate series.
type SearchService struct {
	lookup  SeriesLookup
	metrics *utils.APIMetrics
}

func NewSearchService(lookup SeriesLookup, metrics *utils.APIMetrics) *SearchService {
	if metrics == nil {
		metrics = utils.NewAPIMetrics(nil)
	}
	return &SearchService{lookup: lookup, metrics: metrics}
}

// Search returns the provider's hits in order. Blank queries fail with an
// EmptyQuery error before any request is made.
func (s *SearchService) Search(ctx context.Context, query string) (models.CandidateList, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewEmptyQueryError()
	}

	start := time.Now()
	resp, err := s.lookup.SearchSeries(ctx, query)
	s.metrics.RecordProviderCall("search", err, time.Since(start))
	if err != nil {
		utils.GetLogger().Error("OMDb search error", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return nil, apperrors.NewSearchError("Failed to search TV series", err)
	}

	if !resp.OK() || len(resp.Search) == 0 {
		message := resp.Error
		if message == "" {
			message = fmt.Sprintf("No TV series found for \"%s\".", query)
		}
		return nil, apperrors.NewSearchError(message, nil)
	}

	list := resp.Candidates()
	utils.GetLogger().Debug("search finished", map[string]interface{}{
		"query":   query,
		"results": len(list),
	})
	return list, nil
}
