package orchestrator

import (
	"time"

	"sjsage522/carspecworker/internal/crawler"
)

const (
	persistedMessage = "Successfully written data to file"
	persistFailure   = "Failed to write data to file: "
)

// Report is the result of a completed crawl
type Report struct {
	Brands        []crawler.Brand   `json:"brands"`
	Vehicles      []crawler.Vehicle `json:"vehicles"`
	AmountSummary AmountSummary     `json:"amountSummary"`
	Message       string            `json:"message"`
	StartedAt     time.Time         `json:"startedAt"`
	FinishedAt    time.Time         `json:"finishedAt"`
}

// Summary is a Report without the collected records
type Summary struct {
	AmountSummary AmountSummary `json:"amountSummary"`
	Message       string        `json:"message"`
	StartedAt     time.Time     `json:"startedAt"`
	FinishedAt    time.Time     `json:"finishedAt"`
	Duration      string        `json:"duration"`
}

// NewReport starts a report for a brand index of brandCount entries
func NewReport(brandCount int, startedAt time.Time) *Report {
	return &Report{
		Brands:        []crawler.Brand{},
		Vehicles:      []crawler.Vehicle{},
		AmountSummary: AmountSummary{Brands: brandCount},
		StartedAt:     startedAt,
	}
}

// MergeChunk appends the vehicles of a finished chunk and adds its counts
func (r *Report) MergeChunk(vehicles []crawler.Vehicle, counts []Counts) {
	for _, v := range vehicles {
		r.Brands = append(r.Brands, v.Brand)
		r.Vehicles = append(r.Vehicles, v)
	}

	var total Counts
	for _, c := range counts {
		total = total.Add(c)
	}
	r.AmountSummary.Models += total.Models
	r.AmountSummary.Generations += total.Generations
	r.AmountSummary.Cars += total.Cars
}

// Finalize records the persistence outcome and the finish time
func (r *Report) Finalize(persistErr error, finishedAt time.Time) {
	r.Message = persistedMessage
	if persistErr != nil {
		r.Message = persistFailure + persistErr.Error()
	}
	r.FinishedAt = finishedAt
}

// Summary returns the report without its records
func (r *Report) Summary() Summary {
	return Summary{
		AmountSummary: r.AmountSummary,
		Message:       r.Message,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		Duration:      r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
	}
}
