// Package models contains the data structures shared by the resolution pipeline
package models

import (
	"encoding/json"
	"strings"
)

// Origin tags a source produced by the extraction step
type Origin string

const (
	// OriginNone marks a source that has not been through extraction
	OriginNone Origin = ""
	// OriginDirect marks a media locator resolved out of an embed page
	OriginDirect Origin = "direct"
	// OriginEmbed marks an embed page kept as fallback next to its direct locators
	OriginEmbed Origin = "embed"
)

// StreamingSource is one playable candidate handed to the player
type StreamingSource struct {
	URL           string            `json:"url"`
	IsM3U8        bool              `json:"isM3U8"`
	IsEmbed       bool              `json:"isEmbed"`
	NeedsHeadless bool              `json:"needsHeadless"`
	Quality       string            `json:"quality,omitempty"`
	Language      string            `json:"language"`
	LangCode      string            `json:"langCode"`
	IsDub         bool              `json:"isDub"`
	ProviderName  string            `json:"providerName"`
	Origin        Origin            `json:"origin,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
}

// DisplayName returns the provider label shown by the server selector
func (s StreamingSource) DisplayName() string {
	switch s.Origin {
	case OriginDirect:
		return s.ProviderName + " (Direct)"
	case OriginEmbed:
		return s.ProviderName + " (Embed)"
	default:
		return s.ProviderName
	}
}

// IsDirect reports whether the player can open the URL without an iframe
func (s StreamingSource) IsDirect() bool {
	return !s.IsEmbed
}

// IsProgressive reports whether a direct source is a plain media file
func (s StreamingSource) IsProgressive() bool {
	return !s.IsEmbed && !s.IsM3U8
}

// LooksLikeHLS reports whether a locator points at an HLS manifest
func LooksLikeHLS(rawURL string) bool {
	return strings.Contains(strings.ToLower(rawURL), ".m3u8")
}

// MarshalJSON adds the presentation label next to the raw fields
func (s StreamingSource) MarshalJSON() ([]byte, error) {
	type plain StreamingSource
	return json.Marshal(struct {
		plain
		Label string `json:"label"`
	}{plain: plain(s), Label: s.DisplayName()})
}
