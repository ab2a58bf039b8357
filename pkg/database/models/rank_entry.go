package models

import "time"

// RankEntry is the ranking record of a single user.
// Scores are derived by the score calculator and never edited directly.
type RankEntry struct {
	UserID        string `gorm:"primaryKey;type:varchar(64)"`
	TotalScore    int
	LeetCodeScore int
	GithubScore   int

	// Dense rank, 0 while the user was never ranked.
	Rank         int
	PreviousRank int
	RankChange   int

	// Last score mutation, the secondary ranking key.
	ScoreUpdatedAt time.Time
	// Last score or rank mutation.
	LastUpdated time.Time
}

// Scores is the output of the score calculator.
type Scores struct {
	LeetCodeScore int `json:"leetCodeScore"`
	GithubScore   int `json:"githubScore"`
	TotalScore    int `json:"totalScore"`
}
