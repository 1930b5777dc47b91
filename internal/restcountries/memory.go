package restcountries

import (
	"context"
	"slices"
	"sync"

	"countries-go/internal/directory"
	"countries-go/internal/model"
)

// MemoryClient serves a fixed directory from memory.
// This implementation is safe for concurrent use.
type MemoryClient struct {
	mu        sync.RWMutex
	countries []model.Country
}

// NewMemoryClient creates a MemoryClient serving a copy of countries.
func NewMemoryClient(countries []model.Country) *MemoryClient {
	return &MemoryClient{countries: slices.Clone(countries)}
}

// Replace swaps the directory served by later fetches.
func (m *MemoryClient) Replace(countries []model.Country) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countries = slices.Clone(countries)
}

// FetchAll returns a copy of the directory.
func (m *MemoryClient) FetchAll(ctx context.Context) ([]model.Country, error) {
	if err := ctx.Err(); err != nil {
		return nil, &directory.TransportError{Op: "memory fetch", Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Clone(m.countries)
	if out == nil {
		out = []model.Country{}
	}
	return out, nil
}

// Compile-time check that MemoryClient implements directory.Client interface
var _ directory.Client = (*MemoryClient)(nil)

// SampleCountries returns a small built-in directory for offline use.
func SampleCountries() []model.Country {
	p := model.Ptr[string]
	return []model.Country{
		{
			Name:       "Finland",
			Capital:    p("Helsinki"),
			FlagURL:    "https://flagcdn.com/fi.svg",
			Population: 5530719,
			LandArea:   model.Ptr(338424.0),
			Currencies: []model.Currency{{Code: p("EUR"), Name: p("Euro"), Symbol: p("€")}},
			Languages: []model.Language{
				{Name: p("Finnish"), NativeName: p("suomi")},
				{Name: p("Swedish"), NativeName: p("svenska")},
			},
			Region: p("Europe"),
		},
		{
			Name:       "Sweden",
			Capital:    p("Stockholm"),
			FlagURL:    "https://flagcdn.com/se.svg",
			Population: 10353442,
			LandArea:   model.Ptr(450295.0),
			Currencies: []model.Currency{{Code: p("SEK"), Name: p("Swedish krona"), Symbol: p("kr")}},
			Languages:  []model.Language{{Name: p("Swedish"), NativeName: p("svenska")}},
			Region:     p("Europe"),
		},
		{
			Name:       "Fiji",
			Capital:    p("Suva"),
			FlagURL:    "https://flagcdn.com/fj.svg",
			Population: 896444,
			LandArea:   model.Ptr(18272.0),
			Currencies: []model.Currency{{Code: p("FJD"), Name: p("Fijian dollar"), Symbol: p("$")}},
			Languages: []model.Language{
				{Name: p("English"), NativeName: p("English")},
				{Name: p("Fijian"), NativeName: p("vosa Vakaviti")},
				{Name: p("Fiji Hindi"), NativeName: p("फ़िजी बात")},
			},
			Region: p("Oceania"),
		},
		{
			Name:       "Japan",
			Capital:    p("Tokyo"),
			FlagURL:    "https://flagcdn.com/jp.svg",
			Population: 125836021,
			LandArea:   model.Ptr(377930.0),
			Currencies: []model.Currency{{Code: p("JPY"), Name: p("Japanese yen"), Symbol: p("¥")}},
			Languages:  []model.Language{{Name: p("Japanese"), NativeName: p("日本語 (にほんご)")}},
			Region:     p("Asia"),
		},
		{
			Name:       "Brazil",
			Capital:    p("Brasília"),
			FlagURL:    "https://flagcdn.com/br.svg",
			Population: 212559409,
			LandArea:   model.Ptr(8515767.0),
			Currencies: []model.Currency{{Code: p("BRL"), Name: p("Brazilian real"), Symbol: p("R$")}},
			Languages:  []model.Language{{Name: p("Portuguese"), NativeName: p("Português")}},
			Region:     p("Americas"),
		},
		{
			Name:       "Åland Islands",
			Capital:    p("Mariehamn"),
			FlagURL:    "https://flagcdn.com/ax.svg",
			Population: 28875,
			LandArea:   model.Ptr(1580.0),
			Currencies: []model.Currency{{Code: p("EUR"), Name: p("Euro"), Symbol: p("€")}},
			Languages:  []model.Language{{Name: p("Swedish"), NativeName: p("svenska")}},
			Region:     p("Europe"),
		},
		{
			Name:       "Antarctica",
			FlagURL:    "https://flagcdn.com/aq.svg",
			Population: 1000,
			LandArea:   model.Ptr(14000000.0),
			Region:     p("Polar"),
		},
		{
			Name:       "Bouvet Island",
			FlagURL:    "https://flagcdn.com/bv.svg",
			Population: 0,
			LandArea:   model.Ptr(49.0),
			Currencies: []model.Currency{{Code: p("NOK"), Name: p("Norwegian krone"), Symbol: p("kr")}},
			Languages:  []model.Language{{Name: p("Norwegian"), NativeName: p("Norsk")}},
			Region:     p("Antarctic Ocean"),
		},
	}
}
