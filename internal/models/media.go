package models

// FormatSpec is the resolved retrieval-tool format selection for one
// media type and quality tier.
type FormatSpec struct {
	Selector    string
	MergeFormat string
	Ext         string
	ContentType string
}

type MediaInfo struct {
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Duration   float64 `json:"duration"`
	Ext        string  `json:"ext"`
	Thumbnail  string  `json:"thumbnail"`
	WebpageURL string  `json:"webpage_url"`
}
