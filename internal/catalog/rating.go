// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package catalog

// ratingOrder is the fixed total order over review rating categories,
// from Overwhelmingly Negative (lowest) to Overwhelmingly Positive
// (highest). Unknown or missing ratings map to 0, between Mixed and
// Mostly Negative.
var ratingOrder = map[string]int{
	"Overwhelmingly Positive": 5,
	"Very Positive":           4,
	"Positive":                3,
	"Mostly Positive":         2,
	"Mixed":                   1,
	"Mostly Negative":         -1,
	"Negative":                -2,
	"Very Negative":           -3,
	"Overwhelmingly Negative": -4,
}

// RatingValue returns the numeric rank of a rating category.
// Unknown categories return 0, never an error.
func RatingValue(rating string) int {
	return ratingOrder[rating]
}
