package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CityEntry describes one selectable city.
type CityEntry struct {
	Key       string   `json:"key"`
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases"`
}

var defaultCities = []CityEntry{
	{Key: "athens", Canonical: "Αθήνα", Aliases: []string{"athens", "athina", "athena", "αθηνα", "attica", "αττική"}},
	{Key: "thessaloniki", Canonical: "Θεσσαλονίκη", Aliases: []string{"thessaloniki", "salonica", "saloniki", "θεσ/νικη"}},
	{Key: "patras", Canonical: "Πάτρα", Aliases: []string{"patras", "patra"}},
	{Key: "heraklion", Canonical: "Ηράκλειο", Aliases: []string{"heraklion", "iraklio", "irakleio"}},
	{Key: "larissa", Canonical: "Λάρισα", Aliases: []string{"larissa", "larisa"}},
	{Key: "volos", Canonical: "Βόλος", Aliases: []string{"volos"}},
	{Key: "ioannina", Canonical: "Ιωάννινα", Aliases: []string{"ioannina", "giannena", "γιάννενα"}},
	{Key: "chania", Canonical: "Χανιά", Aliases: []string{"chania", "hania", "xania"}},
	{Key: "rhodes", Canonical: "Ρόδος", Aliases: []string{"rhodes", "rodos"}},
	{Key: "kalamata", Canonical: "Καλαμάτα", Aliases: []string{"kalamata"}},
}

// CityAliases resolves a selected city into the terms a location string may contain.
type CityAliases struct {
	entries []CityEntry
	index   map[string]int
}

// NewCityAliases indexes entries by folded key, canonical name and alias.
func NewCityAliases(entries []CityEntry) *CityAliases {
	c := &CityAliases{entries: entries, index: make(map[string]int, len(entries)*4)}
	for i, e := range entries {
		for _, term := range append([]string{e.Key, e.Canonical}, e.Aliases...) {
			if f := FoldText(term); f != "" {
				if _, taken := c.index[f]; !taken {
					c.index[f] = i
				}
			}
		}
	}
	return c
}

// DefaultCityAliases returns the built-in Greek city table.
func DefaultCityAliases() *CityAliases {
	return NewCityAliases(defaultCities)
}

// Entries lists the known cities.
func (c *CityAliases) Entries() []CityEntry {
	return append([]CityEntry(nil), c.entries...)
}

// Terms returns the folded match terms for city. Unknown cities match on their literal value only.
func (c *CityAliases) Terms(city string) []string {
	folded := FoldText(city)
	if folded == "" {
		return nil
	}
	i, ok := c.index[folded]
	if !ok {
		return []string{folded}
	}
	e := c.entries[i]
	terms := make([]string, 0, len(e.Aliases)+2)
	for _, term := range append([]string{e.Canonical, e.Key}, e.Aliases...) {
		if f := FoldText(term); f != "" {
			terms = append(terms, f)
		}
	}
	return terms
}

// Matches reports whether location and any term of city contain one another.
func (c *CityAliases) Matches(location, city string) bool {
	loc := FoldText(location)
	if loc == "" {
		return false
	}
	for _, term := range c.Terms(city) {
		if strings.Contains(loc, term) || strings.Contains(term, loc) {
			return true
		}
	}
	return false
}

// FoldText lower-cases s, strips diacritics and trims surrounding space.
func FoldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.TrimSpace(cases.Fold().String(stripped))
}
