package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sells-group/portfolio-scout/internal/model"
)

// Structured-extraction schemas sent to the renderer. The detail schema names
// one company; the listing schema asks for an array. Both request the same
// fixed field set.

var singleCompanySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"name": {"type": "string", "description": "Portfolio company name"},
		"industry": {"type": "string"},
		"location": {"type": "string"},
		"website": {"type": "string"},
		"ceo": {"type": "string"},
		"description": {"type": "string"},
		"investment_role": {"type": "string", "description": "e.g. lead investor, co-investor, majority owner"},
		"ownership": {"type": "string"},
		"year": {"type": "string", "description": "Year of initial investment"},
		"status": {"type": "string", "description": "Current or Exited"}
	},
	"required": ["name"]
}`)

var listingSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"companies": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"industry": {"type": "string"},
					"location": {"type": "string"},
					"website": {"type": "string"},
					"ceo": {"type": "string"},
					"description": {"type": "string"},
					"investment_role": {"type": "string"},
					"ownership": {"type": "string"},
					"year": {"type": "string"},
					"status": {"type": "string"}
				},
				"required": ["name"]
			}
		}
	},
	"required": ["companies"]
}`)

// flexString tolerates the renderer returning numbers where the schema asked
// for strings (years in particular).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		*f = flexString(strconv.FormatInt(int64(n), 10))
		return nil
	}
	*f = flexString(s)
	return nil
}

// companyPayload is one company in a structured-extraction response.
type companyPayload struct {
	Name           flexString `json:"name"`
	Industry       flexString `json:"industry"`
	Location       flexString `json:"location"`
	Website        flexString `json:"website"`
	CEO            flexString `json:"ceo"`
	Description    flexString `json:"description"`
	InvestmentRole flexString `json:"investment_role"`
	Ownership      flexString `json:"ownership"`
	Year           flexString `json:"year"`
	Status         flexString `json:"status"`
	Partners       []string   `json:"partners"`
}

// listingPayload is the array-of-companies response shape.
type listingPayload struct {
	Companies []companyPayload `json:"companies"`
}

// decodePayload normalizes the renderer's loosely-typed extraction payload
// into a tagged union at the boundary: exactly one of the returns is non-nil,
// or both are nil when the payload is absent or unusable. The ambiguous raw
// shape must never propagate past this function.
func decodePayload(raw json.RawMessage) (*companyPayload, *listingPayload) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	// Array-of-companies, either wrapped or bare.
	var lp listingPayload
	if err := json.Unmarshal(raw, &lp); err == nil && len(lp.Companies) > 0 {
		return nil, &lp
	}
	var bare []companyPayload
	if err := json.Unmarshal(raw, &bare); err == nil && len(bare) > 0 {
		return nil, &listingPayload{Companies: bare}
	}

	// Single company.
	var cp companyPayload
	if err := json.Unmarshal(raw, &cp); err == nil && strings.TrimSpace(string(cp.Name)) != "" {
		return &cp, nil
	}

	return nil, nil
}

// toRecord flattens a payload company into the canonical record shape.
func (c *companyPayload) toRecord(sourceURL string) model.InvestmentRecord {
	rec := model.InvestmentRecord{
		Name:           strings.TrimSpace(string(c.Name)),
		Industry:       strings.TrimSpace(string(c.Industry)),
		Location:       strings.TrimSpace(string(c.Location)),
		Website:        strings.TrimSpace(string(c.Website)),
		CEO:            strings.TrimSpace(string(c.CEO)),
		Description:    strings.TrimSpace(string(c.Description)),
		InvestmentRole: strings.TrimSpace(string(c.InvestmentRole)),
		Ownership:      strings.TrimSpace(string(c.Ownership)),
		Year:           strings.TrimSpace(string(c.Year)),
		Status:         strings.TrimSpace(string(c.Status)),
		SourceURL:      sourceURL,
		Method:         model.MethodStructured,
	}
	for _, p := range c.Partners {
		if p = strings.TrimSpace(p); p != "" {
			rec.Partners = append(rec.Partners, p)
		}
	}
	return rec
}
