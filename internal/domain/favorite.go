package domain

// FavoriteType classifies what kind of item a favorite refers to.
type FavoriteType string

const (
	FavoriteExpert      FavoriteType = "expert"
	FavoritePublication FavoriteType = "publication"
	FavoriteTrial       FavoriteType = "trial"
)

// FavoriteItem is the denormalized snapshot stored with a favorite. Only the
// fields relevant to the favorite's type are populated.
type FavoriteItem struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	ORCID       string `json:"orcid,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
	Location    string `json:"location,omitempty"`
	PMID        string `json:"pmid,omitempty"`
	Title       string `json:"title,omitempty"`
	Link        string `json:"link,omitempty"`
	Year        string `json:"year,omitempty"`
	Phase       string `json:"phase,omitempty"`
	Status      string `json:"status,omitempty"`
}

// FavoriteEntry is one entry in a user's favorites list.
type FavoriteEntry struct {
	ID   string       `json:"_id,omitempty"`
	Type FavoriteType `json:"type"`
	Item FavoriteItem `json:"item"`
}

// ExpertProfile is a third-party-sourced researcher profile.
type ExpertProfile struct {
	Name              string   `json:"name"`
	ORCID             string   `json:"orcid,omitempty"`
	Affiliation       string   `json:"affiliation,omitempty"`
	Location          string   `json:"location,omitempty"`
	Biography         string   `json:"biography,omitempty"`
	ResearchInterests []string `json:"researchInterests,omitempty"`
	Publications      []FavoriteItem `json:"publications,omitempty"`
	Trials            []FavoriteItem `json:"trials,omitempty"`
}

// ExpertInvite is an invite-to-platform record for an off-platform expert.
type ExpertInvite struct {
	ID          string `json:"_id,omitempty"`
	InviterID   string `json:"inviterId"`
	Name        string `json:"name"`
	ORCID       string `json:"orcid,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
	Location    string `json:"location,omitempty"`
	Status      string `json:"status,omitempty"`
}
