package directory

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"countries-go/internal/model"
)

// Derive computes the visible list from the raw directory, the search text
// and the sort mode. It is pure: raw is never modified and the result is a
// fresh slice, even when nothing was filtered or reordered.
func Derive(raw []model.Country, search string, mode SortMode) []model.Country {
	return Sort(Filter(raw, search), mode)
}

// Filter returns the countries whose name contains search, ignoring case.
// Matching uses full Unicode case folding, so "ss" matches "ß", and no
// other normalization.
// An empty search keeps every country.
func Filter(countries []model.Country, search string) []model.Country {
	if search == "" {
		return slices.Clone(countries)
	}

	folder := cases.Fold()
	needle := folder.String(search)

	out := make([]model.Country, 0, len(countries))
	for _, c := range countries {
		if strings.Contains(folder.String(c.Name), needle) {
			out = append(out, c)
		}
	}
	return out
}

// Sort returns a stably sorted copy of countries. Equal keys keep their
// relative order for every mode.
func Sort(countries []model.Country, mode SortMode) []model.Country {
	out := slices.Clone(countries)
	if out == nil {
		out = []model.Country{}
	}

	switch mode {
	case SortNone:
	case SortAscending:
		slices.SortStableFunc(out, func(a, b model.Country) int {
			return cmp.Compare(a.Population, b.Population)
		})
	case SortDescending:
		slices.SortStableFunc(out, func(a, b model.Country) int {
			return cmp.Compare(b.Population, a.Population)
		})
	case SortAlphabetical:
		// Byte order of UTF-8 strings is code point order.
		slices.SortStableFunc(out, func(a, b model.Country) int {
			return strings.Compare(a.Name, b.Name)
		})
	}
	return out
}
