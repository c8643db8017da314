// Package model defines the core data types shared across the scrape pipeline.
package model

import "strings"

// ExtractionMethod identifies which strategy produced a record.
type ExtractionMethod string

const (
	MethodStructured    ExtractionMethod = "structured"
	MethodHTMLPattern   ExtractionMethod = "html_pattern"
	MethodTextPattern   ExtractionMethod = "text_pattern"
	MethodImageGrid     ExtractionMethod = "image_grid"
	MethodLinkHarvest   ExtractionMethod = "link_harvest"
	MethodTitleFallback ExtractionMethod = "title_fallback"
)

// InvestmentRecord is one portfolio company extracted from a firm's website.
type InvestmentRecord struct {
	Name           string   `json:"name"`
	Industry       string   `json:"industry,omitempty"`
	Date           string   `json:"date,omitempty"`
	Year           string   `json:"year,omitempty"`
	Description    string   `json:"description,omitempty"`
	CEO            string   `json:"ceo,omitempty"`
	InvestmentRole string   `json:"investment_role,omitempty"`
	Ownership      string   `json:"ownership,omitempty"`
	Location       string   `json:"location,omitempty"`
	Website        string   `json:"website,omitempty"`
	Status         string   `json:"status,omitempty"`
	Partners       []string `json:"partners,omitempty"`

	SourceURL    string `json:"source_url"`
	PortfolioURL string `json:"portfolio_url,omitempty"`

	Method     ExtractionMethod `json:"method,omitempty"`
	Confidence int              `json:"confidence"`
}

// scoredFields is the fixed optional field set used for confidence scoring.
// Year and Date count as a single slot since one is derivable from the other.
var scoredFields = []string{
	"industry", "year", "description", "ceo",
	"investment_role", "ownership", "location", "website",
}

// ScoredFieldCount returns the number of optional fields in the fixed
// scoring set, see ScoredFilled.
func ScoredFieldCount() int { return len(scoredFields) }

// ScoredFilled returns the names of scored optional fields that are populated.
func (r *InvestmentRecord) ScoredFilled() []string {
	var filled []string
	for _, f := range scoredFields {
		if r.Field(f) != "" {
			filled = append(filled, f)
		}
	}
	return filled
}

// MissingFields returns the names of required and scored optional fields
// that are absent.
func (r *InvestmentRecord) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	for _, f := range scoredFields {
		if r.Field(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Field returns a named field value, empty string for unknown names.
// The "year" slot is satisfied by either Year or Date.
func (r *InvestmentRecord) Field(name string) string {
	switch name {
	case "name":
		return r.Name
	case "industry":
		return r.Industry
	case "date":
		return r.Date
	case "year":
		if r.Year != "" {
			return r.Year
		}
		return r.Date
	case "description":
		return r.Description
	case "ceo":
		return r.CEO
	case "investment_role":
		return r.InvestmentRole
	case "ownership":
		return r.Ownership
	case "location":
		return r.Location
	case "website":
		return r.Website
	case "status":
		return r.Status
	default:
		return ""
	}
}

// FilledCount counts non-empty fields across the whole record, used by the
// deduplicator to pick the more complete side of a merge.
func (r *InvestmentRecord) FilledCount() int {
	n := 0
	for _, v := range []string{
		r.Name, r.Industry, r.Date, r.Year, r.Description, r.CEO,
		r.InvestmentRole, r.Ownership, r.Location, r.Website, r.Status,
	} {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	if len(r.Partners) > 0 {
		n++
	}
	return n
}

// HasName reports whether the record has a usable, non-empty name.
func (r *InvestmentRecord) HasName() bool {
	return strings.TrimSpace(r.Name) != ""
}

// Validation annotates a record with extraction quality diagnostics.
// Derived, never persisted.
type Validation struct {
	Confidence int              `json:"confidence"`
	Missing    []string         `json:"missing"`
	Method     ExtractionMethod `json:"method"`
}
