package model

import "time"

// Friendship is an unordered pair stored canonically with UsernameA < UsernameB.
type Friendship struct {
	UsernameA string    `json:"username_a"`
	UsernameB string    `json:"username_b"`
	CreatedAt time.Time `json:"created_at"`
}
