package models

import "time"

// Project represents a self-registered project in the registry
type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	URL          string    `json:"url,omitempty"`
	Logo         string    `json:"logo,omitempty"`
	Category     string    `json:"category"`
	Tags         []string  `json:"tags"`
	Owner        string    `json:"owner"`
	SupportCount int       `json:"supportCount"`
	TotalSignal  int       `json:"totalSignal"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProjectUpdate carries a partial update; nil fields are left untouched.
type ProjectUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	URL         *string  `json:"url"`
	Logo        *string  `json:"logo"`
	Category    *string  `json:"category"`
	Tags        []string `json:"tags"`
	Owner       *string  `json:"owner"`
}

// ProjectSummary is the trimmed projection returned alongside signal mutations
type ProjectSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SupportCount int    `json:"supportCount"`
	TotalSignal  int    `json:"totalSignal"`
}

func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{
		ID:           p.ID,
		Name:         p.Name,
		SupportCount: p.SupportCount,
		TotalSignal:  p.TotalSignal,
	}
}
