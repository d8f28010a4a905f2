package contact

// Contact is an emergency contact owned by a single user. OwnerID must
// reference a live user; deleting the owner removes all their contacts.
type Contact struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}
