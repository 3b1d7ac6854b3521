package model

// User is a GitHub account as returned by the search and detail endpoints.
// Search results carry only the leading fields; the optional ones are filled
// by the detail endpoint.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
	Type      string `json:"type"`
	SiteAdmin bool   `json:"site_admin"`

	Name     *string `json:"name,omitempty"`
	Company  *string `json:"company,omitempty"`
	Blog     *string `json:"blog,omitempty"`
	Location *string `json:"location,omitempty"`
	Email    *string `json:"email,omitempty"`
	Bio      *string `json:"bio,omitempty"`

	PublicRepos *int `json:"public_repos,omitempty"`
	PublicGists *int `json:"public_gists,omitempty"`
	Followers   *int `json:"followers,omitempty"`
	Following   *int `json:"following,omitempty"`

	CreatedAt *string `json:"created_at,omitempty"`
	UpdatedAt *string `json:"updated_at,omitempty"`
}

// Equal reports whether both records describe the same account.
// Only the identifier takes part in the comparison.
func (u User) Equal(other User) bool {
	return u.ID == other.ID
}

// IsDetailed reports whether the record came from the detail endpoint.
func (u User) IsDetailed() bool {
	return u.CreatedAt != nil || u.PublicRepos != nil || u.Followers != nil
}
