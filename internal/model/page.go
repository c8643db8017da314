package model

// CrawledPage is a page returned by the renderer during discovery or scrape.
type CrawledPage struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Markdown    string `json:"markdown,omitempty"`
	HTML        string `json:"html,omitempty"`
	StatusCode  int    `json:"status_code"`
}
