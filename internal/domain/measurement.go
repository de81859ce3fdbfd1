package domain

import "strconv"

// Measurement kinds configured for the tyre size selector.
const (
	MeasurementWidth   = "width"
	MeasurementProfile = "profile"
	MeasurementRim     = "rim"
)

// Measurement is one selectable value in the size finder, e.g. width 205.
type Measurement struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Value     int    `json:"value"`
	Label     string `json:"label"`
	SortOrder int    `json:"sortOrder"`
}

func (m Measurement) RowID() string { return m.ID }

func (m Measurement) Cell(key string) string {
	switch key {
	case "kind":
		return m.Kind
	case "value":
		return strconv.Itoa(m.Value)
	case "label":
		if m.Label == "" {
			return strconv.Itoa(m.Value)
		}
		return m.Label
	case "order":
		return strconv.Itoa(m.SortOrder)
	}
	return ""
}
