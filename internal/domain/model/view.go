package model

import "time"

// ViewEvent records one directed observation: the viewing user saw the
// viewed user's card and either liked or passed.
type ViewEvent struct {
	ViewingUsername string    `json:"viewing_username"`
	ViewedUsername  string    `json:"viewed_username"`
	Liked           bool      `json:"liked"`
	CreatedAt       time.Time `json:"created_at"`
}
