package tiktok

import (
	"bytes"
	"encoding/json"
	"errors"
)

// proxyEnvelope is the pass-through proxy body. The extractor response is
// carried verbatim as a JSON string in Contents.
type proxyEnvelope struct {
	Contents *string `json:"contents"`
}

// apiPayload is the extractor response. Data stays raw until Code says the
// lookup succeeded, since failed lookups may carry any shape there.
type apiPayload struct {
	Code *int            `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type apiAuthor struct {
	Nickname string `json:"nickname"`
	UniqueID string `json:"unique_id"`
}

type apiData struct {
	Title       string     `json:"title"`
	Author      *apiAuthor `json:"author"`
	Cover       string     `json:"cover"`
	OriginCover string     `json:"origin_cover"`
	Images      []string   `json:"images"`
	Play        string     `json:"play"`
	HDPlay      string     `json:"hdplay"`
	Music       string     `json:"music"`
}

var (
	errMissingContents = errors.New("envelope has no contents")
	errMissingCode     = errors.New("payload has no code")
	errMissingData     = errors.New("payload has no data")
)

// unwrapEnvelope returns the inner payload bytes carried by the proxy.
func unwrapEnvelope(body []byte) ([]byte, error) {
	var env proxyEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, malformed("proxy", err)
	}
	if env.Contents == nil {
		return nil, malformed("proxy", errMissingContents)
	}
	return []byte(*env.Contents), nil
}

// interpretPayload decodes the extractor payload and returns its data record
// when the upstream reports success (code 0).
func interpretPayload(raw []byte) (apiData, int, error) {
	var p apiPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return apiData{}, 0, malformed("extractor", err)
	}
	if p.Code == nil {
		return apiData{}, 0, malformed("extractor", errMissingCode)
	}
	if *p.Code != 0 {
		msg := p.Msg
		if msg == "" {
			msg = msgNotProcessed
		}
		return apiData{}, *p.Code, &LookupError{Kind: KindExtractionFailed, Message: msg}
	}

	trimmed := bytes.TrimSpace(p.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return apiData{}, 0, malformed("extractor", errMissingData)
	}
	var d apiData
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return apiData{}, 0, malformed("extractor", err)
	}
	return d, 0, nil
}

// normalize maps the extractor record onto LookupResult, applying the
// fallback chains for creator, cover and HD video.
func normalize(d apiData) LookupResult {
	res := LookupResult{
		Kind:        KindVideo,
		Description: d.Title,
		Creator:     firstNonEmpty(authorNickname(d.Author), authorUniqueID(d.Author), "Unknown"),
		Images:      []string{},
		Cover:       firstNonEmpty(d.Cover, d.OriginCover),
		Video:       d.Play,
		VideoHD:     firstNonEmpty(d.HDPlay, d.Play),
		Music:       d.Music,
	}
	if len(d.Images) > 0 {
		res.Kind = KindImage
		res.Images = append(res.Images, d.Images...)
	}
	return res
}

func authorNickname(a *apiAuthor) string {
	if a == nil {
		return ""
	}
	return a.Nickname
}

func authorUniqueID(a *apiAuthor) string {
	if a == nil {
		return ""
	}
	return a.UniqueID
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
