package mock

import (
	"fmt"
	"time"

	"github.com/DukeRupert/treadline/internal/domain"
)

// Demo credentials accepted by a seeded backend.
const (
	DemoEmail    = "admin@treadline.test"
	DemoPassword = "treadline"
)

// Seed fills b with a demo catalogue and the demo account.
func Seed(b *Backend, now time.Time) {
	b.AddAccount(DemoEmail, DemoPassword, domain.User{
		ID:    "u-demo",
		Name:  "Demo Admin",
		Email: DemoEmail,
		Role:  domain.RoleAdmin,
	})

	brands := []string{"Michelin", "Pirelli", "Continental", "Bridgestone", "Goodyear", "Hankook", "Nokian", "Dunlop", "Yokohama", "Falken", "Toyo", "Vredestein"}
	var brandRows []domain.Row
	for i, name := range brands {
		brandRows = append(brandRows, domain.Brand{
			ID:           fmt.Sprintf("b-%02d", i+1),
			Name:         name,
			ProductCount: (i*7)%11 + 1,
		})
	}
	b.SetRows(domain.ResourceBrands, brandRows)

	seasons := []string{domain.SeasonSummer, domain.SeasonWinter, domain.SeasonAllSeason}
	widths := []int{185, 195, 205, 215, 225, 235, 245}
	var products []domain.Row
	for i := 0; i < 57; i++ {
		w := widths[i%len(widths)]
		products = append(products, domain.Product{
			ID:         fmt.Sprintf("p-%03d", i+1),
			Name:       fmt.Sprintf("%s Line %d", brands[i%len(brands)], i%5+1),
			BrandName:  brands[i%len(brands)],
			Width:      w,
			Profile:    40 + (i%4)*5,
			RimSize:    15 + i%5,
			Season:     seasons[i%len(seasons)],
			PriceCents: int64(7900 + i*350),
			Stock:      (i * 13) % 40,
			Published:  i%6 != 0,
		})
	}
	b.SetRows(domain.ResourceProducts, products)

	statuses := []string{domain.AppointmentPending, domain.AppointmentConfirmed, domain.AppointmentCompleted, domain.AppointmentCancelled}
	customers := []string{"Ana Lopez", "Ben Odermatt", "Chloe Park", "Dmitri Volkov", "Emma Fischer", "Farid Haddad", "Grace Kim"}
	var appts []domain.Row
	for i := 0; i < 23; i++ {
		appts = append(appts, domain.Appointment{
			ID:           fmt.Sprintf("a-%03d", i+1),
			CustomerName: customers[i%len(customers)],
			Phone:        fmt.Sprintf("+1 555 01%02d", i),
			Service:      []string{"Tyre fitting", "Wheel alignment", "Seasonal swap", "Puncture repair"}[i%4],
			Vehicle:      []string{"VW Golf", "Toyota Corolla", "Ford Focus", "Tesla Model 3"}[i%4],
			ScheduledAt:  now.Truncate(time.Hour).Add(time.Duration(i*5) * time.Hour),
			Status:       statuses[i%len(statuses)],
		})
	}
	b.SetRows(domain.ResourceAppointments, appts)

	var contacts []domain.Row
	for i := 0; i < 14; i++ {
		name := customers[i%len(customers)]
		contacts = append(contacts, domain.Contact{
			ID:        fmt.Sprintf("c-%03d", i+1),
			Name:      name,
			Email:     fmt.Sprintf("customer%d@example.com", i+1),
			Subject:   []string{"Price for winter set", "Do you stock run-flats?", "Reschedule fitting", "Invoice copy"}[i%4],
			Message:   "Hello, I would like to know more about your tyre fitting service and availability next week.",
			Read:      i%3 == 0,
			CreatedAt: now.Add(-time.Duration(i*9) * time.Hour),
		})
	}
	b.SetRows(domain.ResourceContacts, contacts)

	var measurements []domain.Row
	n := 0
	add := func(kind string, values []int) {
		for i, v := range values {
			n++
			measurements = append(measurements, domain.Measurement{
				ID:        fmt.Sprintf("m-%03d", n),
				Kind:      kind,
				Value:     v,
				SortOrder: i + 1,
			})
		}
	}
	add(domain.MeasurementWidth, widths)
	add(domain.MeasurementProfile, []int{35, 40, 45, 50, 55, 60, 65})
	add(domain.MeasurementRim, []int{15, 16, 17, 18, 19, 20})
	SortByID(measurements)
	b.SetRows(domain.ResourceMeasurements, measurements)
}
