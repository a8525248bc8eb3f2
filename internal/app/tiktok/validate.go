package tiktok

import (
	"regexp"
	"strings"
)

// linkRe accepts tiktok.com and its vt./m. subdomains, with optional scheme
// and www. prefix. It is a shape check only.
var linkRe = regexp.MustCompile(`^(https?://)?(www\.)?(tiktok\.com|vt\.tiktok\.com|m\.tiktok\.com)/`)

// ValidateLink checks that raw looks like a TikTok share link.
func ValidateLink(raw string) error {
	if !linkRe.MatchString(strings.TrimSpace(raw)) {
		return &LookupError{Kind: KindInvalidInput, Message: msgInvalidLink}
	}
	return nil
}
