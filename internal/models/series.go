// internal/models/series.go
package models

import "strings"

// Placeholder is rendered wherever an optional field is absent. The metadata
// provider uses the same literal as its own "no value" sentinel.
const Placeholder = "N/A"

// Candidate is one search hit.
type Candidate struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Year   string `json:"year"`
	Poster string `json:"poster,omitempty"`
	Type   string `json:"type,omitempty"`
}

// HasPoster reports whether the hit carries a usable image URL.
func (c Candidate) HasPoster() bool {
	return c.Poster != ""
}

// YearOrPlaceholder returns the release year or the placeholder.
func (c Candidate) YearOrPlaceholder() string {
	return OrPlaceholder(c.Year)
}

// CandidateList keeps provider order.
type CandidateList []Candidate

// SeriesDetail is the full record of one selected series. Only ID and Title
// are guaranteed; every other field may be empty.
type SeriesDetail struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Plot         string `json:"plot,omitempty"`
	Genre        string `json:"genre,omitempty"`
	Year         string `json:"year,omitempty"`
	Poster       string `json:"poster,omitempty"`
	Rated        string `json:"rated,omitempty"`
	Runtime      string `json:"runtime,omitempty"`
	Actors       string `json:"actors,omitempty"`
	TotalSeasons string `json:"total_seasons,omitempty"`
	IMDBRating   string `json:"imdb_rating,omitempty"`
}

func (d *SeriesDetail) HasPoster() bool {
	return d != nil && d.Poster != ""
}

// Display returns a copy with every absent optional field set to Placeholder.
func (d *SeriesDetail) Display() SeriesDetail {
	if d == nil {
		return SeriesDetail{Title: Placeholder}
	}
	out := *d
	for _, f := range []*string{
		&out.Title, &out.Plot, &out.Genre, &out.Year, &out.Poster,
		&out.Rated, &out.Runtime, &out.Actors, &out.TotalSeasons, &out.IMDBRating,
	} {
		*f = OrPlaceholder(*f)
	}
	return out
}

// OrPlaceholder returns s, or Placeholder when s is blank.
func OrPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// NormalizeSentinel maps the provider's "N/A" sentinel (and blanks) to "".
func NormalizeSentinel(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, Placeholder) {
		return ""
	}
	return s
}
