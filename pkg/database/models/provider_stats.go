package models

import "time"

// LeetCodeStats is the last snapshot fetched from LeetCode for a user.
type LeetCodeStats struct {
	UserID             string    `gorm:"primaryKey;type:varchar(64)" json:"userId"`
	TotalSolved        int       `json:"totalSolved"`
	EasySolved         int       `json:"easySolved"`
	MediumSolved       int       `json:"mediumSolved"`
	HardSolved         int       `json:"hardSolved"`
	AcceptanceRate     float64   `json:"acceptanceRate"`
	Ranking            int       `json:"ranking"`
	Reputation         int       `json:"reputation"`
	ContributionPoints int       `json:"contributionPoints"`
	SyncedAt           time.Time `json:"syncedAt"`
}

// GitHubStats is the last snapshot fetched from GitHub for a user.
type GitHubStats struct {
	UserID        string    `gorm:"primaryKey;type:varchar(64)" json:"userId"`
	PublicRepos   int       `json:"publicRepos"`
	TotalStars    int       `json:"totalStars"`
	TotalForks    int       `json:"totalForks"`
	Followers     int       `json:"followers"`
	Following     int       `json:"following"`
	Contributions int       `json:"contributions"`
	Avatar        string    `json:"avatar"`
	ProfileUrl    string    `json:"profileUrl"`
	SyncedAt      time.Time `json:"syncedAt"`
}

// TableName keeps the github_stats name instead of git_hub_stats.
func (GitHubStats) TableName() string {
	return "github_stats"
}

// TableName keeps the leetcode_stats name instead of leet_code_stats.
func (LeetCodeStats) TableName() string {
	return "leetcode_stats"
}
