package ingestion

import (
	"time"
)

// SourceReport counts what happened to one source's articles.
type SourceReport struct {
	Source   string
	Category string

	Fetched    int // candidates returned by the source
	Stored     int // new articles inserted
	Indexed    int // stored articles whose chunks were upserted
	Chunks     int // chunk vectors upserted
	Duplicates int // already known URLs, including lost insert races
	Empty      int // stored articles with no content to embed
	Invalid    int // candidates without a usable URL or title
	Failed     int // articles that hit an error after fetch

	// FetchErr is set when the source could not be fetched at all.
	FetchErr error

	Duration time.Duration
}

// Report summarizes a pipeline run.
type Report struct {
	Sources  []SourceReport
	Started  time.Time
	Finished time.Time
}

// Totals sums the counts of all sources.
func (r *Report) Totals() SourceReport {
	total := SourceReport{Source: "total"}
	for _, s := range r.Sources {
		total.Fetched += s.Fetched
		total.Stored += s.Stored
		total.Indexed += s.Indexed
		total.Chunks += s.Chunks
		total.Duplicates += s.Duplicates
		total.Empty += s.Empty
		total.Invalid += s.Invalid
		total.Failed += s.Failed
	}
	total.Duration = r.Finished.Sub(r.Started)
	return total
}

// FailedSources returns the names of sources that could not be fetched.
func (r *Report) FailedSources() []string {
	var names []string
	for _, s := range r.Sources {
		if s.FetchErr != nil {
			names = append(names, s.Source)
		}
	}
	return names
}
