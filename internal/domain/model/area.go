package model

// Area describes one ZIP code returned by the radius provider for a single
// discovery call. Never persisted.
type Area struct {
	ZipCode  string  `json:"zip_code"`
	Distance float64 `json:"distance"`
	City     string  `json:"city"`
	State    string  `json:"state"`
}

// Candidate is a profile surfaced during discovery, annotated with the area
// info from the radius provider result that admitted it.
type Candidate struct {
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Hobbies   []string `json:"hobbies"`
	Interests []string `json:"interests"`
	PhotoURL  *string  `json:"photo_url"`
	Area      Area     `json:"area"`
}
