package model

import "time"

// Status is the durable enrichment classification of a company record.
type Status string

const (
	StatusIncomplete        Status = "incomplete"
	StatusPartiallyEnriched Status = "partially_enriched"
	StatusEnriched          Status = "enriched"
	StatusFailed            Status = "failed"
	StatusScrapingFailed    Status = "scraping_failed"
)

// Social platform keys used in the Socials map.
const (
	PlatformLinkedIn  = "linkedin"
	PlatformFacebook  = "facebook"
	PlatformTwitter   = "twitter"
	PlatformInstagram = "instagram"
	PlatformYouTube   = "youtube"
)

// Platforms lists the known social platforms in canonical order.
var Platforms = []string{
	PlatformLinkedIn,
	PlatformFacebook,
	PlatformTwitter,
	PlatformInstagram,
	PlatformYouTube,
}

// Socials maps a platform key to a profile URL. Keys are optional.
type Socials map[string]string

// HasAny reports whether at least one platform URL is present.
func (s Socials) HasAny() bool {
	for _, url := range s {
		if url != "" {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy, dropping empty values.
func (s Socials) Clone() Socials {
	out := make(Socials, len(s))
	for k, v := range s {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Company is a persisted company record. Created elsewhere (import, CRUD
// screens); the enrichment core only reads and updates it.
type Company struct {
	ID                    int64      `json:"id"`
	Name                  string     `json:"name"`
	Address               string     `json:"address,omitempty"`
	Phone                 string     `json:"phone,omitempty"`
	Website               string     `json:"website,omitempty"`
	Socials               Socials    `json:"socials,omitempty"`
	Industry              string     `json:"industry,omitempty"`
	Description           string     `json:"description,omitempty"`
	Email                 string     `json:"email,omitempty"`
	Status                Status     `json:"status"`
	LastEnrichmentAttempt *time.Time `json:"last_enrichment_attempt,omitempty"`
	LastEnrichmentError   string     `json:"last_enrichment_error,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// CompanyUpdate is a partial update for a company record. Nil pointers leave
// the persisted value untouched; the merge is additive, never destructive.
type CompanyUpdate struct {
	Website               *string
	Socials               Socials
	Industry              *string
	Description           *string
	Email                 *string
	Phone                 *string
	Status                *Status
	LastEnrichmentAttempt *time.Time
	LastEnrichmentError   *string
}

// Contact is a person attached to a company, typically discovered by the
// employee-discovery path. Deduplicated by (name, role, source) per company.
type Contact struct {
	ID          int64     `json:"id"`
	CompanyID   int64     `json:"company_id"`
	Name        string    `json:"name"`
	Role        string    `json:"role,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Department  string    `json:"department,omitempty"`
	LinkedInURL string    `json:"linkedin_url,omitempty"`
	Source      string    `json:"source,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
