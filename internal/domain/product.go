package domain

import (
	"fmt"
	"strconv"
)

// Season of a tyre.
const (
	SeasonSummer    = "summer"
	SeasonWinter    = "winter"
	SeasonAllSeason = "all_season"
)

// Product is a tyre or wheel in the catalogue.
type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BrandName  string `json:"brandName"`
	Width      int    `json:"width"`   // section width in mm, e.g. 205
	Profile    int    `json:"profile"` // aspect ratio, e.g. 55
	RimSize    int    `json:"rimSize"` // rim diameter in inches, e.g. 16
	Season     string `json:"season"`
	PriceCents int64  `json:"priceCents"`
	Stock      int    `json:"stock"`
	Published  bool   `json:"published"`
}

// Size returns the ISO-style size designation, e.g. "205/55 R16".
func (p Product) Size() string {
	if p.Width == 0 || p.RimSize == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d R%d", p.Width, p.Profile, p.RimSize)
}

// Price formats PriceCents as a decimal amount.
func (p Product) Price() string {
	return fmt.Sprintf("%d.%02d", p.PriceCents/100, p.PriceCents%100)
}

func (p Product) RowID() string { return p.ID }

func (p Product) Cell(key string) string {
	switch key {
	case "name":
		return p.Name
	case "brand":
		return p.BrandName
	case "size":
		return p.Size()
	case "season":
		return seasonLabel(p.Season)
	case "price":
		return p.Price()
	case "stock":
		return strconv.Itoa(p.Stock)
	case "published":
		return yesNo(p.Published)
	}
	return ""
}

func seasonLabel(s string) string {
	switch s {
	case SeasonSummer:
		return "Summer"
	case SeasonWinter:
		return "Winter"
	case SeasonAllSeason:
		return "All season"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
