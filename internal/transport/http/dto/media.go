package dto

type PhotoResponse struct {
	PhotoURL string `json:"photo_url"`
}
