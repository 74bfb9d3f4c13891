// internal/services/detail_service.go
package services

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/Corphon/SeriesMoodRecap/internal/errors"
	"github.com/Corphon/SeriesMoodRecap/internal/models"
	"github.com/Corphon/SeriesMoodRecap/internal/utils"
)

// DetailService fetches the full record of a selected candidate.
type DetailService struct {
	lookup  SeriesLookup
	metrics *utils.APIMetrics
}

func NewDetailService(lookup SeriesLookup, metrics *utils.APIMetrics) *DetailService {
	if metrics == nil {
		metrics = utils.NewAPIMetrics(nil)
	}
	return &DetailService{lookup: lookup, metrics: metrics}
}

// FetchDetail asks the provider for the full-plot record of id.
func (s *DetailService) FetchDetail(ctx context.Context, id string) (*models.SeriesDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewValidationError("A series ID is required.", nil)
	}

	start := time.Now()
	resp, err := s.lookup.GetSeries(ctx, id)
	s.metrics.RecordProviderCall("detail", err, time.Since(start))
	if err != nil {
		utils.GetLogger().Error("OMDb details error", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
		return nil, apperrors.NewDetailError("Failed to fetch series details", err)
	}

	if !resp.OK() {
		message := resp.Error
		if message == "" {
			message = "Failed to fetch details for series ID: " + id
		}
		return nil, apperrors.NewDetailError(message, nil)
	}

	return resp.Detail(id), nil
}
