package tiktok

// Kind tells which media fields of a LookupResult are meaningful.
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

// LookupResult is the normalized extractor answer for one link.
//
// Optional URLs are empty when the extractor did not return them. Images is
// never nil and only has entries when Kind is KindImage.
type LookupResult struct {
	Kind        Kind     `json:"type"`
	Description string   `json:"description"`
	Creator     string   `json:"creator"`
	Images      []string `json:"images"`
	Cover       string   `json:"cover,omitempty"`
	Video       string   `json:"video,omitempty"`
	VideoHD     string   `json:"videoHd,omitempty"`
	Music       string   `json:"music,omitempty"`
}

// IsImage reports whether the post is a photo slideshow.
func (r LookupResult) IsImage() bool {
	return r.Kind == KindImage
}
