package service

import (
	"strings"

	"github.com/trialconnect/agent/internal/domain"
)

// FavoriteOp is a reconciliation operation on the favorites list.
type FavoriteOp int

const (
	OpAdd FavoriteOp = iota
	OpRemove
)

// IdentityKey resolves the type-specific identity of a favorite. It is
// used both for the in-flight toggle guard and as the last-resort match.
//
// Tie-breaks per type:
//   - expert: name, falling back to id
//   - publication: pmid, then id, then (title, link, year)
//   - trial: id, falling back to title
func IdentityKey(e domain.FavoriteEntry) string {
	var key string
	switch e.Type {
	case domain.FavoriteExpert:
		key = e.Item.Name
		if key == "" {
			key = itemID(e)
		}
	case domain.FavoritePublication:
		key = e.Item.PMID
		if key == "" {
			key = itemID(e)
		}
		if key == "" {
			key = strings.Join([]string{e.Item.Title, e.Item.Link, e.Item.Year}, "|")
		}
	case domain.FavoriteTrial:
		key = itemID(e)
		if key == "" {
			key = e.Item.Title
		}
	}
	return string(e.Type) + ":" + key
}

// itemID prefers the snapshot id and falls back to the entry's server id.
func itemID(e domain.FavoriteEntry) string {
	if e.Item.ID != "" {
		return e.Item.ID
	}
	return e.ID
}

// SameFavorite reports whether two favorites of the same type resolve to
// the same underlying item.
func SameFavorite(a, b domain.FavoriteEntry) bool {
	if a.Type != b.Type {
		return false
	}

	switch a.Type {
	case domain.FavoriteExpert:
		if a.Item.Name != "" && b.Item.Name != "" {
			return a.Item.Name == b.Item.Name
		}
		return itemID(a) != "" && itemID(a) == itemID(b)

	case domain.FavoritePublication:
		// Equal pmids match regardless of any other field.
		if a.Item.PMID != "" && b.Item.PMID != "" {
			return a.Item.PMID == b.Item.PMID
		}
		// Ids only decide when neither side carries a pmid.
		if a.Item.PMID == "" && b.Item.PMID == "" && itemID(a) != "" && itemID(b) != "" {
			return itemID(a) == itemID(b)
		}
		if IdentityKey(a) == IdentityKey(b) {
			return true
		}
		// Items with no stable identifier match on the full triple.
		return a.Item.Title == b.Item.Title &&
			a.Item.Link == b.Item.Link &&
			a.Item.Year == b.Item.Year

	case domain.FavoriteTrial:
		if itemID(a) != "" && itemID(b) != "" {
			return itemID(a) == itemID(b)
		}
		return a.Item.Title != "" && a.Item.Title == b.Item.Title
	}

	return false
}

// Contains reports whether the list already holds this favorite.
func Contains(list []domain.FavoriteEntry, entry domain.FavoriteEntry) bool {
	for _, e := range list {
		if SameFavorite(e, entry) {
			return true
		}
	}
	return false
}

// Apply returns the list after the given operation. Adds are deduplicated
// so the list never holds two entries of one type with the same identity.
// The input slice is not mutated.
func Apply(list []domain.FavoriteEntry, op FavoriteOp, entry domain.FavoriteEntry) []domain.FavoriteEntry {
	switch op {
	case OpRemove:
		out := make([]domain.FavoriteEntry, 0, len(list))
		for _, e := range list {
			if !SameFavorite(e, entry) {
				out = append(out, e)
			}
		}
		return out

	case OpAdd:
		if Contains(list, entry) {
			return list
		}
		out := make([]domain.FavoriteEntry, 0, len(list)+1)
		out = append(out, list...)
		return append(out, entry)
	}
	return list
}
