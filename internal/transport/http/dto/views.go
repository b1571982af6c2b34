package dto

type DecisionRequest struct {
	ViewedUsername string `json:"viewed_username"`
	Liked          *bool  `json:"liked"`
}

type DecisionResponse struct {
	Matched bool `json:"matched"`
}
