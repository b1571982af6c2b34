package dto

import "github.com/maxjeon97/friender/internal/domain/model"

type AreaResponse struct {
	ZipCode  string  `json:"zip_code"`
	Distance float64 `json:"distance"`
	City     string  `json:"city"`
	State    string  `json:"state"`
}

type CandidateResponse struct {
	Username  string       `json:"username"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Hobbies   []string     `json:"hobbies"`
	Interests []string     `json:"interests"`
	PhotoURL  *string      `json:"photo_url"`
	Area      AreaResponse `json:"area"`
}

type DiscoverResponse struct {
	Candidates []CandidateResponse `json:"candidates"`
}

func NewDiscoverResponse(items []model.Candidate) DiscoverResponse {
	candidates := make([]CandidateResponse, 0, len(items))
	for _, item := range items {
		hobbies := item.Hobbies
		if hobbies == nil {
			hobbies = []string{}
		}
		interests := item.Interests
		if interests == nil {
			interests = []string{}
		}
		candidates = append(candidates, CandidateResponse{
			Username:  item.Username,
			FirstName: item.FirstName,
			LastName:  item.LastName,
			Hobbies:   hobbies,
			Interests: interests,
			PhotoURL:  item.PhotoURL,
			Area: AreaResponse{
				ZipCode:  item.Area.ZipCode,
				Distance: item.Area.Distance,
				City:     item.Area.City,
				State:    item.Area.State,
			},
		})
	}
	return DiscoverResponse{Candidates: candidates}
}
