package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCountry is wrapped by every validation failure of a Country.
var ErrInvalidCountry = errors.New("invalid country")

// Country represents one entry of the country directory.
// Values are built once from a directory response and never mutated.
type Country struct {
	Name       string     `json:"name"`
	Capital    *string    `json:"capital,omitempty"`
	FlagURL    string     `json:"flag"` // may point to an SVG
	Population int64      `json:"population"`
	LandArea   *float64   `json:"area,omitempty"` // square kilometres
	Currencies []Currency `json:"currencies,omitempty"`
	Languages  []Language `json:"languages,omitempty"`
	Region     *string    `json:"region,omitempty"`
}

// Currency describes a currency used by a country.
// Upstream data is inconsistently populated, so every field is optional.
type Currency struct {
	Code   *string `json:"code,omitempty"`
	Name   *string `json:"name,omitempty"`
	Symbol *string `json:"symbol,omitempty"`
}

// Language describes a language spoken in a country.
type Language struct {
	Name       *string `json:"name,omitempty"`
	NativeName *string `json:"nativeName,omitempty"`
}

// countryJSON mirrors the wire shape with pointers for the required fields
// so that absent and null values can be told apart from zero values.
type countryJSON struct {
	Name       *string    `json:"name"`
	Capital    *string    `json:"capital"`
	Flag       *string    `json:"flag"`
	Population *int64     `json:"population"`
	Area       *float64   `json:"area"`
	Currencies []Currency `json:"currencies"`
	Languages  []Language `json:"languages"`
	Region     *string    `json:"region"`
}

// UnmarshalJSON decodes a Country, rejecting records that lack name, flag or
// population. Optional fields may be absent or null.
func (c *Country) UnmarshalJSON(data []byte) error {
	var raw countryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.Name == nil:
		return fmt.Errorf("%w: missing field %q", ErrInvalidCountry, "name")
	case raw.Flag == nil:
		return fmt.Errorf("%w: %s: missing field %q", ErrInvalidCountry, *raw.Name, "flag")
	case raw.Population == nil:
		return fmt.Errorf("%w: %s: missing field %q", ErrInvalidCountry, *raw.Name, "population")
	}

	decoded := Country{
		Name:       *raw.Name,
		Capital:    raw.Capital,
		FlagURL:    *raw.Flag,
		Population: *raw.Population,
		LandArea:   raw.Area,
		Currencies: raw.Currencies,
		Languages:  raw.Languages,
		Region:     raw.Region,
	}
	if err := decoded.Validate(); err != nil {
		return err
	}

	*c = decoded
	return nil
}

// Validate checks the invariants of a Country.
func (c Country) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCountry)
	}
	if c.Population < 0 {
		return fmt.Errorf("%w: %s: negative population %d", ErrInvalidCountry, c.Name, c.Population)
	}
	if c.LandArea != nil && *c.LandArea < 0 {
		return fmt.Errorf("%w: %s: negative area %v", ErrInvalidCountry, c.Name, *c.LandArea)
	}
	return nil
}

// CapitalOr returns the capital, or def when the country has none.
func (c Country) CapitalOr(def string) string {
	if c.Capital == nil || *c.Capital == "" {
		return def
	}
	return *c.Capital
}

// RegionOr returns the region, or def when it is unknown.
func (c Country) RegionOr(def string) string {
	if c.Region == nil || *c.Region == "" {
		return def
	}
	return *c.Region
}

// PrimaryCurrency returns the first listed currency.
func (c Country) PrimaryCurrency() (Currency, bool) {
	if len(c.Currencies) == 0 {
		return Currency{}, false
	}
	return c.Currencies[0], true
}

// LanguageNames joins the language names with ", ". Unnamed languages
// contribute an empty entry so positions stay aligned with the source.
func (c Country) LanguageNames() string {
	names := make([]string, len(c.Languages))
	for i, l := range c.Languages {
		if l.Name != nil {
			names[i] = *l.Name
		}
	}
	return strings.Join(names, ", ")
}

// String renders a currency as "Name (Symbol)".
func (cur Currency) String() string {
	return fmt.Sprintf("%s (%s)", deref(cur.Name), deref(cur.Symbol))
}

// Ptr returns a pointer to v. Handy for building optional fields.
func Ptr[T any](v T) *T {
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
