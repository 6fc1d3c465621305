package entity

import (
	"errors"
	"strings"
	"time"
)

type Kind string

const (
	KindURL  Kind = "url"
	KindText Kind = "text"
	KindTOTP Kind = "totp"
)

func (k Kind) Valid() bool {
	return k == KindURL || k == KindText || k == KindTOTP
}

// Preset is a named module size and quiet zone width.
type Preset struct {
	Name    string
	BoxSize int
	Border  int
}

const DefaultPreset = "medium"

var presets = map[string]Preset{
	"small":   {"small", 8, 3},
	"medium":  {"medium", 10, 4},
	"large":   {"large", 12, 5},
	"mobile":  {"mobile", 10, 3},
	"16:9":    {"16:9", 10, 4},
	"4:3":     {"4:3", 10, 4},
	"1:1":     {"1:1", 10, 4},
	"ios":     {"ios", 10, 4},
	"android": {"android", 10, 4},
}

var ErrUnknownPreset = errors.New("generation: unknown size preset")

// LookupPreset resolves name, defaulting to medium when empty.
func LookupPreset(name string) (Preset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultPreset
	}
	p, ok := presets[name]
	if !ok {
		return Preset{}, ErrUnknownPreset
	}
	return p, nil
}

// History is one stored generation.
type History struct {
	ID         string
	SubjectID  string
	Kind       Kind
	Content    string
	Foreground string
	Background string
	Preset     string
	BoxSize    int
	Border     int
	ObjectKey  string
	SizeBytes  int64
	IsFavorite bool
	CreatedAt  time.Time
}

// ObjectKey is where the image of history id lives in the bucket.
func ObjectKey(subjectID, id string) string {
	return "qrcodes/" + subjectID + "/" + id + ".png"
}
