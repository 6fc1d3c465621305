package inbound

import (
	"net/http"
	"time"
)

type GenerateRequest struct {
	Kind       string `json:"kind"`
	Content    string `json:"content"`
	Size       string `json:"size"`
	BoxSize    *int   `json:"box_size"`
	Border     *int   `json:"border"`
	Foreground string `json:"fg"`
	Background string `json:"bg"`
	Preview    bool   `json:"preview"`
}

type GenerateResponse struct {
	ID      string `json:"id,omitempty"`
	Image   string `json:"image"`
	URL     string `json:"url,omitempty"`
	Preset  string `json:"preset"`
	BoxSize int    `json:"box_size"`
	Border  int    `json:"border"`

	preview bool
}

func (g GenerateResponse) StatusCode() int {
	if g.preview {
		return http.StatusOK
	}
	return http.StatusCreated
}

func (g GenerateResponse) Message() string {
	if g.preview {
		return "QR code preview"
	}
	return "QR code generated"
}

type HistoryResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Content    string    `json:"content"`
	Foreground string    `json:"fg"`
	Background string    `json:"bg"`
	Preset     string    `json:"preset"`
	BoxSize    int       `json:"box_size"`
	Border     int       `json:"border"`
	SizeBytes  int64     `json:"size_bytes"`
	IsFavorite bool      `json:"is_favorite"`
	URL        string    `json:"url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListResponse struct {
	Items []HistoryResponse `json:"items"`

	total         int64
	limit, offset int32
}

func (l ListResponse) Meta() map[string]any {
	return map[string]any{"total": l.total, "limit": l.limit, "offset": l.offset}
}

type FavoriteResponse struct {
	ID         string `json:"id"`
	IsFavorite bool   `json:"is_favorite"`
}
