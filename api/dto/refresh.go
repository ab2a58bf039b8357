package dto

import "coderanker/pkg/database/models"

// ProviderFailure tells which provider failed and why.
type ProviderFailure struct {
	Provider string `json:"provider"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// RefreshResponse is the outcome of a user refresh.
type RefreshResponse struct {
	UserID     string               `json:"userId"`
	Type       models.RefreshType   `json:"type"`
	Status     models.RefreshStatus `json:"status"`
	Scores     *models.Scores       `json:"scores,omitempty"`
	Rank       int                  `json:"rank"`
	RankChange int                  `json:"rankChange"`
	Failures   []ProviderFailure    `json:"failures,omitempty"`
	DurationMs int64                `json:"duration"`
}

// UsernameValidation is the check result of a single provider username.
type UsernameValidation struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message"`
}

// UsernameValidations groups the result of every provider.
type UsernameValidations struct {
	GitHub   UsernameValidation `json:"github"`
	LeetCode UsernameValidation `json:"leetcode"`
}
