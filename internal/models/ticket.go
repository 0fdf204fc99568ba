package models

// TicketContent is the model-drafted content for one tracker ticket.
type TicketContent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
