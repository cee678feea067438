// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package catalog

import "strings"

// genreSynonyms maps common user phrasings to canonical genre names.
// Keys and values are lowercase. Unknown genres pass through unchanged
// after lowercasing and trimming.
var genreSynonyms = map[string]string{
	"rpg":                   "role-playing",
	"role playing":          "role-playing",
	"roleplaying":           "role-playing",
	"fps":                   "shooter",
	"first person shooter":  "shooter",
	"third person shooter":  "shooter",
	"shooter":               "shooter",
	"action adventure":      "action",
	"adventure":             "adventure",
	"sports":                "sports",
	"sim":                   "simulation",
	"simulator":             "simulation",
	"strategy":              "strategy",
	"indie":                 "indie",
	"puzzle":                "puzzle",
	"platformer":            "platformer",
	"platform":              "platformer",
	"horror":                "horror",
	"racing":                "racing",
	"casual":                "casual",
	"multiplayer":           "multiplayer",
	"co-op":                 "co-op",
	"coop":                  "co-op",
	"sandbox":               "sandbox",
	"survival":              "survival",
	"open world":            "open world",
	"family":                "family",
	"family friendly":       "family",
	"story rich":            "story rich",
	"roguelike":             "roguelike",
	"roguelite":             "roguelike",
	"turn based":            "turn-based",
	"turn-based":            "turn-based",
	"card":                  "card",
	"deckbuilder":           "card",
	"deck builder":          "card",
	"visual novel":          "visual novel",
	"anime":                 "anime",
	"fighting":              "fighting",
	"building":              "building",
	"city builder":          "building",
	"management":            "management",
	"music":                 "music",
	"rhythm":                "music",
	"stealth":               "stealth",
	"tactical":              "tactical",
	"tower defense":         "tower defense",
	"vr":                    "vr",
	"virtual reality":       "vr",
	"zombie":                "zombie",
	"historical":            "historical",
	"sci-fi":                "sci-fi",
	"science fiction":       "sci-fi",
	"space":                 "space",
	"western":               "western",
	"mmo":                   "mmo",
	"massively multiplayer": "mmo",
	"free to play":          "free to play",
	"f2p":                   "free to play",
}

// NormalizeGenre maps a user-supplied genre or tag to its canonical
// lowercase form, so "RPG", "rpg" and "role playing" all compare equal.
func NormalizeGenre(genre string) string {
	g := strings.ToLower(strings.TrimSpace(genre))
	if canonical, ok := genreSynonyms[g]; ok {
		return canonical
	}
	return g
}

// NormalizeGenres normalizes each genre, dropping empties and
// duplicates while preserving first-seen order.
func NormalizeGenres(genres []string) []string {
	if len(genres) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(genres))
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		n := NormalizeGenre(g)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
