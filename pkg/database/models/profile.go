package models

import "time"

// Profile links a user to the provider accounts.
type Profile struct {
	UserID           string `gorm:"primaryKey;type:varchar(64)"`
	Username         string
	Avatar           string
	GithubUsername   *string
	LeetcodeUsername *string
	LastLogin        *time.Time
	UpdatedAt        time.Time
}

// GitHub returns the linked GitHub username or an empty string.
func (p *Profile) GitHub() string {
	if p == nil || p.GithubUsername == nil {
		return ""
	}
	return *p.GithubUsername
}

// LeetCode returns the linked LeetCode username or an empty string.
func (p *Profile) LeetCode() string {
	if p == nil || p.LeetcodeUsername == nil {
		return ""
	}
	return *p.LeetcodeUsername
}
