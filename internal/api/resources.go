package api

import (
	"encoding/json"
	"fmt"

	"github.com/DukeRupert/treadline/internal/domain"
)

// decodeFunc turns a list response body into generic rows.
type decodeFunc func(body []byte) (domain.ListResult[domain.Row], error)

var decoders = map[string]decodeFunc{
	domain.ResourceProducts:     decodeRows[domain.Product],
	domain.ResourceAppointments: decodeRows[domain.Appointment],
	domain.ResourceBrands:       decodeRows[domain.Brand],
	domain.ResourceContacts:     decodeRows[domain.Contact],
	domain.ResourceMeasurements: decodeRows[domain.Measurement],
}

func decodeRows[T domain.Row](body []byte) (domain.ListResult[domain.Row], error) {
	var res domain.ListResult[T]
	if err := json.Unmarshal(body, &res); err != nil {
		return domain.ListResult[domain.Row]{}, fmt.Errorf("decode list response: %w", err)
	}
	if res.Items == nil {
		res.Items = []T{}
	}
	return domain.Rows(res), nil
}
