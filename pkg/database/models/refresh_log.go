package models

import "time"

// RefreshType is the provider subset requested for a refresh.
type RefreshType string

const (
	RefreshGitHub   RefreshType = "github"
	RefreshLeetCode RefreshType = "leetcode"
	RefreshBoth     RefreshType = "both"
)

// Valid reports whether the refresh type is known.
func (t RefreshType) Valid() bool {
	return t == RefreshGitHub || t == RefreshLeetCode || t == RefreshBoth
}

// IncludesGitHub reports whether GitHub is part of the refresh.
func (t RefreshType) IncludesGitHub() bool {
	return t == RefreshGitHub || t == RefreshBoth
}

// IncludesLeetCode reports whether LeetCode is part of the refresh.
func (t RefreshType) IncludesLeetCode() bool {
	return t == RefreshLeetCode || t == RefreshBoth
}

// RefreshStatus is the outcome of a refresh attempt.
type RefreshStatus string

const (
	RefreshSuccess RefreshStatus = "success"
	RefreshPartial RefreshStatus = "partial"
	RefreshFailed  RefreshStatus = "failed"
)

// RefreshLog is an immutable audit entry of a refresh attempt.
type RefreshLog struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	UserID     string        `gorm:"type:varchar(64);index" json:"userId"`
	Type       RefreshType   `gorm:"type:varchar(10)" json:"type"`
	Status     RefreshStatus `gorm:"type:varchar(10)" json:"status"`
	ErrorKind  string        `json:"errorKind,omitempty"`
	Error      string        `json:"error,omitempty"`
	DurationMs int64         `json:"duration"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"createdAt"`
}
