package testutil

import (
	"countries-go/internal/model"
)

// Country returns a minimal valid country.
func Country(name string, population int64) model.Country {
	return model.Country{
		Name:       name,
		FlagURL:    "https://flagcdn.com/" + name + ".svg",
		Population: population,
	}
}

// Names returns the names of countries in order.
func Names(countries []model.Country) []string {
	names := make([]string, len(countries))
	for i, c := range countries {
		names[i] = c.Name
	}
	return names
}
