package tiktok

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLink(t *testing.T) {
	valid := []string{
		"https://www.tiktok.com/@user/video/7300000000000000000",
		"http://tiktok.com/@user/video/1",
		"tiktok.com/@user/video/1",
		"www.tiktok.com/t/ZT8abc/",
		"https://vt.tiktok.com/ZSabc123/",
		"https://m.tiktok.com/v/123.html",
		"  https://vt.tiktok.com/ZSabc123/  ",
		"https://www.vt.tiktok.com/ZSabc123/",
	}
	for _, link := range valid {
		assert.NoError(t, ValidateLink(link), link)
	}

	invalid := []string{
		"",
		"   ",
		"tiktok",
		"https://tiktok.com",
		"https://instagram.com/p/abc/",
		"https://mytiktok.com/@user/video/1",
		"https://TIKTOK.com/@user/video/1",
	}
	for _, link := range invalid {
		err := ValidateLink(link)
		assert.ErrorIs(t, err, ErrInvalidInput, link)
	}
}
