package leetcodefetcher

// statsResponse is the return of the stats API.
type statsResponse struct {
	Status             string  `json:"status"`
	Message            string  `json:"message"`
	TotalSolved        int     `json:"totalSolved"`
	EasySolved         int     `json:"easySolved"`
	MediumSolved       int     `json:"mediumSolved"`
	HardSolved         int     `json:"hardSolved"`
	AcceptanceRate     float64 `json:"acceptanceRate"`
	Ranking            int     `json:"ranking"`
	Reputation         int     `json:"reputation"`
	ContributionPoints int     `json:"contributionPoints"`
}
