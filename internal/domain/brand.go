package domain

import "strconv"

// Brand is a tyre or wheel manufacturer.
type Brand struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Country      string `json:"country"`
	LogoURL      string `json:"logoUrl"`
	ProductCount int    `json:"productCount"`
}

func (b Brand) RowID() string { return b.ID }

func (b Brand) Cell(key string) string {
	switch key {
	case "name":
		return b.Name
	case "country":
		return b.Country
	case "products":
		return strconv.Itoa(b.ProductCount)
	}
	return ""
}
