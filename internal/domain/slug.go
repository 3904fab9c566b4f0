package domain

import (
	"errors"
	"strconv"
	"time"

	"github.com/gosimple/slug"
)

var ErrInvalidName = errors.New("name yields an empty slug")

// MakeSlug derives a URL-safe slug from a display name: lowercased,
// ASCII-folded, non-alphanumeric runs collapsed to single dashes.
func MakeSlug(name string) (string, error) {
	s := slug.Make(name)
	if s == "" {
		return "", ErrInvalidName
	}
	return s, nil
}

// SuffixSlug disambiguates a colliding slug with a short time-derived
// suffix. One application is enough because the uniqueness check excludes
// the in-flight record.
func SuffixSlug(s string) string {
	ms := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return s + "-" + ms[len(ms)-4:]
}
