package filters

import "strings"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	DefaultTopLimit  = 3
)

// Columns allowed on the leaderboard sort.
var leaderboardSortColumns = map[string]string{
	"totalScore":    "total_score",
	"leetCodeScore": "leet_code_score",
	"githubScore":   "github_score",
	"rank":          "rank",
	"lastUpdated":   "last_updated",
}

// Query parameters for the leaderboard listing.
type LeaderboardQueryParams struct {
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit    int    `form:"limit,default=20" binding:"omitempty,min=1"`
	SortBy   string `form:"sortBy,default=totalScore" binding:"omitempty,oneof=totalScore leetCodeScore githubScore rank lastUpdated"`
	Order    string `form:"order,default=desc" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
	MinScore *int   `form:"minScore" binding:"omitempty,min=0"`
	MaxScore *int   `form:"maxScore" binding:"omitempty,min=0"`
	Platform string `form:"platform,default=all" binding:"omitempty,oneof=all leetcode github"`
}

// LeaderboardFilter is the validated leaderboard query used by the repository.
type LeaderboardFilter struct {
	Page       int
	Limit      int
	SortColumn string
	Descending bool
	Search     string
	MinScore   *int
	MaxScore   *int
	Platform   string
}

// NewLeaderboardFilter normalizes the query parameters.
// Unknown sort fields fall back to the total score and the limit is clamped to the maximum.
func NewLeaderboardFilter(q *LeaderboardQueryParams) *LeaderboardFilter {
	f := &LeaderboardFilter{
		Page:       q.Page,
		Limit:      q.Limit,
		SortColumn: leaderboardSortColumns["totalScore"],
		Descending: q.Order != "asc",
		Search:     strings.ToLower(strings.TrimSpace(q.Search)),
		MinScore:   q.MinScore,
		MaxScore:   q.MaxScore,
		Platform:   q.Platform,
	}

	if column, ok := leaderboardSortColumns[q.SortBy]; ok {
		f.SortColumn = column
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.Platform == "" {
		f.Platform = "all"
	}

	return f
}

// Offset of the first entry of the page.
func (f *LeaderboardFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Query parameters for the top entries.
type TopQueryParams struct {
	Limit int `form:"limit,default=3" binding:"omitempty,min=1"`
}

// TopLimit returns the requested amount of entries, clamped to the maximum.
func (q *TopQueryParams) TopLimit() int {
	if q.Limit < 1 {
		return DefaultTopLimit
	}
	return min(q.Limit, MaxPageLimit)
}

// URI params for the user endpoints.
type UserURIParams struct {
	UserID string `uri:"userId" binding:"required"`
}

// Query parameters for the refresh endpoint.
type RefreshQueryParams struct {
	Type string `form:"type,default=both" binding:"omitempty,oneof=both github leetcode"`
}

// Query parameters for the refresh history.
type HistoryQueryParams struct {
	Limit int `form:"limit,default=10" binding:"omitempty,min=1,max=100"`
}

// Body of the username validation.
type ValidateUsernamesBody struct {
	GithubUsername   string `json:"githubUsername"`
	LeetcodeUsername string `json:"leetcodeUsername"`
}

// UpdateProfileBody links or unlinks the provider accounts.
// A missing field keeps the current account, an empty one unlinks it.
type UpdateProfileBody struct {
	GithubUsername   *string `json:"githubUsername"`
	LeetcodeUsername *string `json:"leetcodeUsername"`
}
