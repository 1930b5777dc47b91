package restcountries

import (
	"encoding/json"

	"countries-go/internal/directory"
	"countries-go/internal/model"
)

// decodeCountries decodes a JSON array of countries. A single invalid record
// fails the whole directory. A JSON null decodes to an empty directory.
func decodeCountries(data []byte) ([]model.Country, error) {
	var countries []model.Country
	if err := json.Unmarshal(data, &countries); err != nil {
		return nil, &directory.DecodeError{Err: err}
	}
	if countries == nil {
		countries = []model.Country{}
	}
	return countries, nil
}
