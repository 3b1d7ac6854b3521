package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// JoinDateLayout matches the created_at timestamps of the detail endpoint.
const JoinDateLayout = "2006-01-02T15:04:05Z0700"

// Profile holds display-ready strings derived from a user record.
type Profile struct {
	DisplayName string  `json:"display_name"`
	Username    string  `json:"username"`
	ProfileURL  string  `json:"profile_url"`
	Bio         *string `json:"bio,omitempty"`
	Location    *string `json:"location,omitempty"`
	Company     *string `json:"company,omitempty"`
	Blog        *string `json:"blog,omitempty"`
	Email       *string `json:"email,omitempty"`
	Followers   *string `json:"followers,omitempty"`
	Following   *string `json:"following,omitempty"`
	Repos       *string `json:"repos,omitempty"`
	Gists       *string `json:"gists,omitempty"`
	JoinDate    *string `json:"join_date,omitempty"`
}

// NewProfile renders base for identity fields and detailed, when loaded, for
// everything the search endpoint does not return.
func NewProfile(base User, detailed *User) Profile {
	p := Profile{
		DisplayName: base.Login,
		Username:    "@" + base.Login,
		ProfileURL:  base.HTMLURL,
	}
	if detailed == nil {
		return p
	}
	if detailed.HTMLURL != "" {
		p.ProfileURL = detailed.HTMLURL
	}
	if detailed.Name != nil && *detailed.Name != "" {
		p.DisplayName = *detailed.Name
	}
	p.Bio = detailed.Bio
	p.Location = detailed.Location
	p.Company = detailed.Company
	p.Email = detailed.Email
	p.Blog = normalizeBlog(detailed.Blog)
	p.Followers = mapInt(detailed.Followers, FormatCount)
	p.Following = mapInt(detailed.Following, FormatCount)
	p.Repos = mapInt(detailed.PublicRepos, strconv.Itoa)
	p.Gists = mapInt(detailed.PublicGists, strconv.Itoa)
	if detailed.CreatedAt != nil {
		if text, ok := JoinDate(*detailed.CreatedAt); ok {
			p.JoinDate = &text
		}
	}
	return p
}

// JoinDate parses a created_at value and renders it as "Joined Jan 2006".
func JoinDate(createdAt string) (string, bool) {
	t, err := time.Parse(JoinDateLayout, createdAt)
	if err != nil {
		return "", false
	}
	return "Joined " + t.Format("Jan 2006"), true
}

// FormatCount abbreviates follower-like counters: 1.2K, 3.4M.
func FormatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.Itoa(n)
	}
}

func normalizeBlog(blog *string) *string {
	if blog == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*blog)
	if trimmed == "" {
		return nil
	}
	if !strings.HasPrefix(trimmed, "http") {
		trimmed = "https://" + trimmed
	}
	return &trimmed
}

func mapInt(v *int, f func(int) string) *string {
	if v == nil {
		return nil
	}
	s := f(*v)
	return &s
}
