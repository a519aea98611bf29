package crawler

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Brand is a car manufacturer from the brand index, identified by PageURL
type Brand struct {
	Title   string `json:"title"`
	LogoURL string `json:"logo"`
	PageURL string `json:"link"`
}

// Model is a brand's model line
type Model struct {
	Title       string       `json:"title"`
	ImageURL    string       `json:"img"`
	PageURL     string       `json:"link"`
	Generations []Generation `json:"gen"`
}

// Generation is one generation of a model, with its list of car variants
type Generation struct {
	Title            string    `json:"title"`
	ImageURL         string    `json:"img"`
	PageURL          string    `json:"link"`
	YearRange        string    `json:"year"`
	BodyType         string    `json:"type"`
	PowerSummary     string    `json:"power"`
	DimensionSummary string    `json:"dimensions"`
	Cars             []CarSpec `json:"cars"`
}

// CarSpec is a single car variant parsed from its detail page
type CarSpec struct {
	Title  string     `json:"title"`
	Photos []string   `json:"photos"`
	Attrs  Attributes `json:"attrs"`
}

// Attributes maps a section id to the fields parsed under that section
type Attributes map[string]map[string]string

// Vehicle is a brand node of the output tree
type Vehicle struct {
	Brand  Brand   `json:"brand"`
	Models []Model `json:"models"`
}

// PageFetcher retrieves a page and returns the nodes matching locator.
// A locator that matches nothing yields an empty selection, not an error.
type PageFetcher interface {
	Fetch(ctx context.Context, url, locator string) (*goquery.Selection, error)
}
