package model

import "time"

type Message struct {
	ID           int64      `json:"id"`
	FromUsername string     `json:"from_username"`
	ToUsername   string     `json:"to_username"`
	Body         string     `json:"body"`
	SentAt       time.Time  `json:"sent_at"`
	ReadAt       *time.Time `json:"read_at"`
}

// ThreadMessage is a message annotated with the counterpart's name, as
// rendered in a user's inbox or outbox listing.
type ThreadMessage struct {
	ID                   int64      `json:"id"`
	CounterpartUsername  string     `json:"counterpart_username"`
	CounterpartFirstName string     `json:"counterpart_first_name"`
	CounterpartLastName  string     `json:"counterpart_last_name"`
	Body                 string     `json:"body"`
	SentAt               time.Time  `json:"sent_at"`
	ReadAt               *time.Time `json:"read_at"`
}
