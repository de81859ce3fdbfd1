package domain

import "time"

// Contact is a customer query submitted through the shop's contact form.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Excerpt returns the first n runes of the message.
func (c Contact) Excerpt(n int) string {
	r := []rune(c.Message)
	if len(r) <= n {
		return c.Message
	}
	return string(r[:n]) + "…"
}

func (c Contact) RowID() string { return c.ID }

func (c Contact) Cell(key string) string {
	switch key {
	case "name":
		return c.Name
	case "email":
		return c.Email
	case "phone":
		return c.Phone
	case "subject":
		return c.Subject
	case "message":
		return c.Excerpt(80)
	case "read":
		return yesNo(c.Read)
	case "received":
		if c.CreatedAt.IsZero() {
			return ""
		}
		return c.CreatedAt.Format("Jan 2, 2006")
	}
	return ""
}
