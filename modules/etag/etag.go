package etag

import (
	"errors"
	"strconv"
	"strings"
)

const prefix = "v:"

var ErrInvalidETag = errors.New("invalid etag format")

type ETaggable interface {
	V() string
}

func ETag(obj ETaggable) string {
	return prefix + obj.V()
}

// ParseETag accepts both quoted and weak forms (W/"v:3") as sent by browsers and proxies.
func ParseETag(etag string) (string, error) {
	etag = strings.TrimSpace(etag)
	etag = strings.TrimPrefix(etag, "W/")
	etag = strings.Trim(etag, `"`)
	if !strings.HasPrefix(etag, prefix) {
		return "", ErrInvalidETag
	}
	return strings.TrimPrefix(etag, prefix), nil
}

// ParseVersion extracts the numeric row version carried by an If-Match header.
func ParseVersion(etag string) (int64, error) {
	raw, err := ParseETag(etag)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, ErrInvalidETag
	}
	return v, nil
}
