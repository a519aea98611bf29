package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/carspecworker/config"
	"sjsage522/carspecworker/helpers"
)

// ExtractBrands maps each brand anchor selected by locators.Brand.List to a Brand
func ExtractBrands(items *goquery.Selection, loc config.BrandLocators, baseURL string) []Brand {
	brands := make([]Brand, 0, items.Length())
	items.Each(func(_ int, s *goquery.Selection) {
		brands = append(brands, Brand{
			Title:   text(s, loc.Title),
			LogoURL: helpers.ResolveURL(baseURL, attr(s, loc.Logo, "src")),
			PageURL: helpers.ResolveURL(baseURL, s.AttrOr("href", "")),
		})
	})
	return brands
}

// ExtractModels maps each model item of a brand page to a Model
func ExtractModels(items *goquery.Selection, loc config.ModelLocators, baseURL string) []Model {
	models := make([]Model, 0, items.Length())
	items.Each(func(_ int, s *goquery.Selection) {
		models = append(models, Model{
			Title:       text(s, loc.Title),
			ImageURL:    helpers.ResolveURL(baseURL, attr(s, loc.Image, "src")),
			PageURL:     helpers.ResolveURL(baseURL, attr(s, loc.Link, "href")),
			Generations: []Generation{},
		})
	})
	return models
}

// ExtractGenerations maps each generation row of a model page to a Generation
func ExtractGenerations(items *goquery.Selection, loc config.GenerationLocators, baseURL string) []Generation {
	generations := make([]Generation, 0, items.Length())
	items.Each(func(_ int, s *goquery.Selection) {
		summary := s.Find(loc.Summary)
		generations = append(generations, Generation{
			Title:            text(s, loc.Title),
			ImageURL:         helpers.ResolveURL(baseURL, attr(s, loc.Image, "src")),
			PageURL:          helpers.ResolveURL(baseURL, attr(s, loc.Link, "href")),
			YearRange:        strings.TrimSpace(s.Find(loc.Year).Text()),
			BodyType:         text(s, loc.BodyType),
			PowerSummary:     strings.TrimSpace(summary.First().Text()),
			DimensionSummary: strings.TrimSpace(summary.Last().Text()),
			Cars:             []CarSpec{},
		})
	})
	return generations
}

// ExtractCarLinks returns the detail-page URL of every car row.
// Rows without a link are malformed upstream and skipped.
func ExtractCarLinks(items *goquery.Selection, loc config.CarListLocators, baseURL string) []string {
	links := make([]string, 0, items.Length())
	items.Each(func(_ int, s *goquery.Selection) {
		link := helpers.ResolveURL(baseURL, attr(s, loc.Link, "href"))
		if link == "" {
			return
		}
		links = append(links, link)
	})
	return links
}

// ExtractCarSpec reads title, photos and the specification table from a car detail page
func ExtractCarSpec(page *goquery.Selection, loc config.CarSpecLocators, baseURL string) CarSpec {
	photos := []string{}
	if main := helpers.ResolveURL(baseURL, attr(page, loc.MainPhoto, "src")); main != "" {
		photos = append(photos, main)
	}
	page.Find(loc.Gallery).Each(func(_ int, img *goquery.Selection) {
		if src := helpers.ResolveURL(baseURL, img.AttrOr("src", "")); src != "" {
			photos = append(photos, src)
		}
	})

	return CarSpec{
		Title:  text(page, loc.Title),
		Photos: photos,
		Attrs:  ParseAttributes(page.Find(loc.Rows), loc),
	}
}

// text returns the trimmed text of the first match of selector within s
func text(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

// attr returns the named attribute of the first match of selector within s
func attr(s *goquery.Selection, selector, name string) string {
	return s.Find(selector).First().AttrOr(name, "")
}
