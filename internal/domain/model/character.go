// Package model contains domain models passed between layers.
package model

import "strings"

// Character is a person from the source catalog. Only the fields the sync
// needs are kept; the portrait is fetched lazily by the driver.
type Character struct {
	ID           string // trailing path segment of URL
	Name         string
	URL          string
	HomeworldURL string
	HomeworldID  string // trailing path segment of HomeworldURL
}

// NewCharacter builds a Character and derives both identifiers from their URLs.
func NewCharacter(name, url, homeworldURL string) Character {
	return Character{
		ID:           IDFromURL(url),
		Name:         name,
		URL:          url,
		HomeworldURL: homeworldURL,
		HomeworldID:  IDFromURL(homeworldURL),
	}
}

// IDFromURL returns the last non-empty path segment of a resource URL, so
// "https://swapi.dev/api/planets/1/" yields "1". Query strings are ignored.
func IDFromURL(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}
