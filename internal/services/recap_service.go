// internal/services/recap_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	apperrors "github.com/Corphon/SeriesMoodRecap/internal/errors"
	"github.com/Corphon/SeriesMoodRecap/internal/llm"
	"github.com/Corphon/SeriesMoodRecap/internal/models"
	"github.com/Corphon/SeriesMoodRecap/internal/utils"
)

// Recap tones. Exactly one is requested per prompt.
const (
	ToneSarcastic  = "funny and sarcastic"
	ToneReflective = "emotional and reflective"
)

// Prompt fallbacks for absent detail fields.
const (
	FallbackOverview = "No overview available."
	FallbackGenres   = "Unknown genres."
	FallbackDate     = "Unknown date."
)

// ToneChooser picks the tone of the next recap.
type ToneChooser func() string

// RandomTone picks either tone with equal probability.
func RandomTone() string {
	if rand.Intn(2) == 0 {
		return ToneSarcastic
	}
	return ToneReflective
}

// FixedTone always returns tone.
func FixedTone(tone string) ToneChooser {
	return func() string { return tone }
}

const promptTemplate = `Generate a 3-sentence recap for the TV series "%s".
The recap should be %s.
Here's some information about the series:
Overview: %s
Genres: %s
First Air Date: %s

Recap for "%s":`

// BuildRecapPrompt renders the single-turn prompt for detail in tone.
func BuildRecapPrompt(detail *models.SeriesDetail, tone string) string {
	overview, genres, date := FallbackOverview, FallbackGenres, FallbackDate
	title := ""
	if detail != nil {
		title = detail.Title
		if detail.Plot != "" {
			overview = detail.Plot
		}
		if detail.Genre != "" {
			genres = detail.Genre
		}
		if detail.Year != "" {
			date = detail.Year
		}
	}
	return fmt.Sprintf(promptTemplate, title, tone, overview, genres, date, title)
}

// RecapService turns series metadata into a short narrative via the LLM.
type RecapService struct {
	provider llm.Provider
	tone     ToneChooser
	model    string
	metrics  *utils.APIMetrics
}

// NewRecapService builds the service. tone may be nil for RandomTone.
func NewRecapService(provider llm.Provider, tone ToneChooser, metrics *utils.APIMetrics) *RecapService {
	if tone == nil {
		tone = RandomTone
	}
	if metrics == nil {
		metrics = utils.NewAPIMetrics(nil)
	}
	return &RecapService{provider: provider, tone: tone, metrics: metrics}
}

// WithModel overrides the provider's default model.
func (s *RecapService) WithModel(model string) *RecapService {
	s.model = model
	return s
}

// GenerateRecap sends one prompt and returns the first candidate's text.
func (s *RecapService) GenerateRecap(ctx context.Context, detail *models.SeriesDetail) (string, error) {
	if detail == nil {
		return "", apperrors.NewValidationError("No series selected.", nil)
	}

	prompt := BuildRecapPrompt(detail, s.tone())

	start := time.Now()
	resp, err := s.provider.CompleteText(ctx, llm.CompletionRequest{
		Prompt: prompt,
		Model:  s.model,
	})
	s.metrics.RecordProviderCall("recap", err, time.Since(start))

	if err != nil {
		utils.GetLogger().Error("Gemini API error", map[string]interface{}{
			"series": detail.ID,
			"error":  err.Error(),
		})
		if errors.Is(err, llm.ErrNoContent) {
			return "", apperrors.NewRecapNoContentError()
		}
		return "", apperrors.NewRecapTransportError(err)
	}
	if resp == nil || resp.Text == "" {
		return "", apperrors.NewRecapNoContentError()
	}

	return resp.Text, nil
}
