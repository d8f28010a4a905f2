package message

import "time"

// Message is a note submitted through the public contact form.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
