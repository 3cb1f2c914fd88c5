package conversation

import (
	"errors"
	"strings"
)

// ErrMalformedSpec is returned when an admin movie record lacks a field.
var ErrMalformedSpec = errors.New("movie record must be code;media;title[;category]")

// MovieSpec is a parsed admin movie record.
type MovieSpec struct {
	Code     string
	MediaRef string
	Title    string
	Category string
}

// ParseMovieSpec parses "code;mediaRef;title[;category]".  Only the first
// two separators split fixed fields.  In the remainder the last separator,
// if any, splits off the category, so a title may itself contain ';'
// when a category is given.
func ParseMovieSpec(s string) (MovieSpec, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ";", 3)
	if len(parts) < 3 {
		return MovieSpec{}, ErrMalformedSpec
	}
	spec := MovieSpec{
		Code:     strings.TrimSpace(parts[0]),
		MediaRef: strings.TrimSpace(parts[1]),
	}
	tail := parts[2]
	if i := strings.LastIndex(tail, ";"); i >= 0 {
		spec.Title = strings.TrimSpace(tail[:i])
		spec.Category = strings.TrimSpace(tail[i+1:])
	} else {
		spec.Title = strings.TrimSpace(tail)
	}
	if spec.Code == "" || spec.MediaRef == "" || spec.Title == "" {
		return MovieSpec{}, ErrMalformedSpec
	}
	return spec, nil
}
