package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"sjsage522/carspecworker/pkg/errors"
)

// Locators holds the CSS selectors describing the target site's markup,
// one record per extraction level. Field selectors are evaluated relative
// to the item selected by the level's List selector.
type Locators struct {
	Brand      BrandLocators      `yaml:"brand"`
	Model      ModelLocators      `yaml:"model"`
	Generation GenerationLocators `yaml:"generation"`
	CarList    CarListLocators    `yaml:"car_list"`
	CarSpec    CarSpecLocators    `yaml:"car_spec"`
}

// BrandLocators locate brands on the brand index page.
// The brand link is the href of the list item itself.
type BrandLocators struct {
	List  string `yaml:"list"`
	Title string `yaml:"title"`
	Logo  string `yaml:"logo"`
}

// ModelLocators locate models on a brand page
type ModelLocators struct {
	List  string `yaml:"list"`
	Title string `yaml:"title"`
	Image string `yaml:"image"`
	Link  string `yaml:"link"`
}

// GenerationLocators locate generations on a model page.
// Summary matches the power and dimension spans; the first match is the
// power summary and the last one the dimension summary.
type GenerationLocators struct {
	List     string `yaml:"list"`
	Title    string `yaml:"title"`
	Image    string `yaml:"image"`
	Link     string `yaml:"link"`
	Year     string `yaml:"year"`
	BodyType string `yaml:"body_type"`
	Summary  string `yaml:"summary"`
}

// CarListLocators locate car rows on a generation page
type CarListLocators struct {
	List string `yaml:"list"`
	Link string `yaml:"link"`
}

// CarSpecLocators locate the fields of a car detail page
type CarSpecLocators struct {
	Page      string `yaml:"page"`
	Title     string `yaml:"title"`
	MainPhoto string `yaml:"main_photo"`
	Gallery   string `yaml:"gallery"`
	Rows      string `yaml:"rows"`
	// Section is searched inside a row; its id names the section.
	Section string `yaml:"section"`
	// FieldRowExclude marks rows that never carry a field.
	FieldRowExclude string `yaml:"field_row_exclude"`
	Label           string `yaml:"label"`
	Value           string `yaml:"value"`
	// ValueAnnotation is dropped from the value cell's direct contents.
	ValueAnnotation string `yaml:"value_annotation"`
}

// DefaultLocators returns the selectors matching the current auto-data.net markup
func DefaultLocators() Locators {
	return Locators{
		Brand: BrandLocators{
			List:  ".brands > a.marki_blok",
			Title: "strong",
			Logo:  "img",
		},
		Model: ModelLocators{
			List:  "ul.modelite > li.letter",
			Title: "ul li a > strong",
			Image: "ul li a > img",
			Link:  "ul li a",
		},
		Generation: GenerationLocators{
			List:     "table.generr > tbody > tr.f",
			Title:    "th.i > a > strong",
			Image:    "th.i > a > img",
			Link:     "th.i > a",
			Year:     "td.i > a > .end, td.i > a > .cur",
			BodyType: "td.i > a > strong.chas",
			Summary:  "td.i > a > span",
		},
		CarList: CarListLocators{
			List: "table.carlist > tbody > tr.i",
			Link: "th.i a",
		},
		CarSpec: CarSpecLocators{
			Page:            "body",
			Title:           "h1",
			MainPhoto:       "img.inspecs",
			Gallery:         ".imagescar > img",
			Rows:            "table.cardetailsout > tbody > tr",
			Section:         "th.no strong.car",
			FieldRowExclude: ".no",
			Label:           "th",
			Value:           "td",
			ValueAnnotation: "span",
		},
	}
}

// LoadLocators returns the default locators, overridden by the YAML file at
// path when path is not empty. Keys missing from the file keep their defaults.
func LoadLocators(path string) (Locators, error) {
	locators := DefaultLocators()
	if path == "" {
		return locators, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // operator-provided path
	if err != nil {
		return locators, errors.NewConfiguration("failed to read locators file "+path, err)
	}

	if err := yaml.Unmarshal(data, &locators); err != nil {
		return locators, errors.NewConfiguration("failed to parse locators file "+path, err)
	}

	return locators, nil
}
