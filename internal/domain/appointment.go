package domain

import "time"

// Appointment statuses.
const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Appointment is a booked fitting or service slot.
type Appointment struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customerName"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Service      string    `json:"service"`
	Vehicle      string    `json:"vehicle"`
	ScheduledAt  time.Time `json:"scheduledAt"`
	Status       string    `json:"status"`
}

func (a Appointment) RowID() string { return a.ID }

func (a Appointment) Cell(key string) string {
	switch key {
	case "customer":
		return a.CustomerName
	case "phone":
		return a.Phone
	case "email":
		return a.Email
	case "service":
		return a.Service
	case "vehicle":
		return a.Vehicle
	case "scheduled":
		if a.ScheduledAt.IsZero() {
			return ""
		}
		return a.ScheduledAt.Format("Jan 2, 2006 15:04")
	case "status":
		return a.Status
	}
	return ""
}
