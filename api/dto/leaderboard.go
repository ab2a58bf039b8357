package dto

import (
	"time"

	"coderanker/pkg/database/models"
)

// LeaderboardEntry is a rank entry with the computed fields for the client.
type LeaderboardEntry struct {
	UserID        string    `json:"userId"`
	Username      string    `json:"username"`
	Avatar        string    `json:"avatar"`
	Rank          int       `json:"rank"`
	PreviousRank  int       `json:"previousRank"`
	RankChange    int       `json:"rankChange"`
	TotalScore    int       `json:"totalScore"`
	LeetCodeScore int       `json:"leetCodeScore"`
	GithubScore   int       `json:"githubScore"`
	Percentile    float64   `json:"percentile"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// Pagination of a leaderboard page.
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// LeaderboardPage is a single page of the leaderboard.
type LeaderboardPage struct {
	Entries     []*LeaderboardEntry `json:"entries"`
	Pagination  Pagination          `json:"pagination"`
	CurrentUser *LeaderboardEntry   `json:"currentUser,omitempty"`
}

// TopUser is the first user of the leaderboard on the global stats.
type TopUser struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Score    int    `json:"score"`
}

// GlobalStats are the leaderboard wide numbers.
type GlobalStats struct {
	TotalUsers   int64    `json:"totalUsers"`
	TotalScore   int64    `json:"totalScore"`
	AverageScore int      `json:"averageScore"`
	TopUser      *TopUser `json:"topUser"`
}

// Profile is the public part of a user profile.
type Profile struct {
	UserID           string `json:"userId"`
	Username         string `json:"username"`
	Avatar           string `json:"avatar"`
	GithubUsername   string `json:"githubUsername,omitempty"`
	LeetcodeUsername string `json:"leetcodeUsername,omitempty"`
}

// UserStats combines everything known about a single user.
type UserStats struct {
	UserID      string                `json:"userId"`
	Profile     *Profile              `json:"profile"`
	Leaderboard *LeaderboardEntry     `json:"leaderboard"`
	GitHub      *models.GitHubStats   `json:"github"`
	LeetCode    *models.LeetCodeStats `json:"leetcode"`
}

// Comparison of the caller against another user.
type Comparison struct {
	User               *UserStats `json:"user"`
	Other              *UserStats `json:"other"`
	ScoreDiff          int        `json:"scoreDiff"`
	LeetCodeSolvedDiff int        `json:"leetcodeSolvedDiff"`
	GithubStarsDiff    int        `json:"githubStarsDiff"`
}

// RankChangeEvent is pushed when a refresh moved the user on the leaderboard.
type RankChangeEvent struct {
	UserID       string `json:"userId"`
	PreviousRank int    `json:"previousRank"`
	Rank         int    `json:"rank"`
	RankChange   int    `json:"rankChange"`
	TotalScore   int    `json:"totalScore"`
}

// ReRankSummary is the outcome of a full re-rank.
type ReRankSummary struct {
	Ranked  int `json:"ranked"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}
