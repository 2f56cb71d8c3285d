package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

var (
	ErrInvalidPage     = errors.New("page must be a positive integer")
	ErrInvalidLimit    = errors.New("limit must be an integer between 1 and 100")
	ErrInvalidFavorite = errors.New("favorite must be true or false")
)

type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePage reads page and limit query values, applying defaults for empty ones.
func ParsePage(rawPage, rawLimit string) (Page, error) {
	p := Page{Page: DefaultPage, Limit: DefaultLimit}

	if s := strings.TrimSpace(rawPage); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return Page{}, ErrInvalidPage
		}
		p.Page = n
	}

	if s := strings.TrimSpace(rawLimit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > MaxLimit {
			return Page{}, ErrInvalidLimit
		}
		p.Limit = n
	}

	// the offset must stay representable
	if p.Page-1 > math.MaxInt/p.Limit {
		return Page{}, ErrInvalidPage
	}

	return p, nil
}

// ParseFavorite turns the favorite query value into a filter; empty means no filter.
func ParseFavorite(raw string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return nil, nil
	case "true":
		v := true
		return &v, nil
	case "false":
		v := false
		return &v, nil
	default:
		return nil, ErrInvalidFavorite
	}
}
