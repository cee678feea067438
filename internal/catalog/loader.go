// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver
	"github.com/goccy/go-json"

	"github.com/playwise/playwise/internal/logging"
)

// Loader reads the games catalog from a CSV file through DuckDB.
// DuckDB's read_csv_auto handles type inference, quoting, and nulls,
// so the loader stays schema-driven rather than hand-parsing CSV.
type Loader struct {
	conn *sql.DB
}

// OpenLoader opens a DuckDB connection for catalog loading. An empty
// databasePath opens an in-memory database, which is sufficient since
// the catalog is materialized into Go structs anyway.
func OpenLoader(databasePath string) (*Loader, error) {
	connStr := ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false"
	if databasePath != "" {
		connStr = databasePath + "?access_mode=read_write&autoinstall_known_extensions=false&autoload_known_extensions=false"
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	return &Loader{conn: conn}, nil
}

// Close releases the underlying DuckDB connection.
func (l *Loader) Close() error {
	return l.conn.Close()
}

// Load reads the catalog CSV and returns normalized entries.
//
// Expected columns (extra columns are ignored): app_id, title,
// date_release, rating, positive_ratio, user_reviews, price_final,
// win, mac, linux, steam_deck, and optionally tags, genres, themes,
// description as JSON arrays or comma-separated strings.
func (l *Loader) Load(ctx context.Context, csvPath string) ([]*Entry, error) {
	log := logging.With().Str("component", "catalog_loader").Logger()
	start := time.Now()

	//nolint:gosec // csvPath comes from operator configuration, not user input
	query := fmt.Sprintf(`
		SELECT
			app_id,
			title,
			CAST(date_release AS VARCHAR),
			rating,
			positive_ratio,
			user_reviews,
			price_final,
			win, mac, linux, steam_deck,
			COALESCE(tags, ''),
			COALESCE(genres, ''),
			COALESCE(themes, ''),
			COALESCE(description, '')
		FROM read_csv_auto('%s', header=true, union_by_name=true)
	`, strings.ReplaceAll(csvPath, "'", "''"))

	rows, err := l.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog csv %s: %w", csvPath, err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			appID         int64
			title         string
			dateRelease   sql.NullString
			rating        sql.NullString
			positiveRatio sql.NullFloat64
			userReviews   sql.NullInt64
			priceFinal    sql.NullFloat64
			win, mac      sql.NullBool
			linux, deck   sql.NullBool
			tagsRaw       string
			genresRaw     string
			themesRaw     string
			description   string
		)
		if err := rows.Scan(
			&appID, &title, &dateRelease, &rating, &positiveRatio,
			&userReviews, &priceFinal, &win, &mac, &linux, &deck,
			&tagsRaw, &genresRaw, &themesRaw, &description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}

		e := &Entry{
			ID:          appID,
			Title:       title,
			Tags:        parseStringSet(tagsRaw),
			Genres:      NormalizeGenres(parseStringSet(genresRaw)),
			Themes:      parseStringSet(themesRaw),
			Description: stripHTML(description),
		}
		if rating.Valid {
			e.Rating = rating.String
		}
		if positiveRatio.Valid {
			v := positiveRatio.Float64
			e.PositiveRatio = &v
		}
		if userReviews.Valid {
			v := userReviews.Int64
			e.UserReviews = &v
		}
		if priceFinal.Valid && priceFinal.Float64 >= 0 {
			v := priceFinal.Float64
			e.Price = &v
		}
		if dateRelease.Valid {
			if t, perr := time.Parse("2006-01-02", dateRelease.String); perr == nil {
				e.ReleaseDate = t
			}
		}
		e.Platforms = platformSet(win, mac, linux, deck)

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog row iteration failed: %w", err)
	}

	log.Info().
		Int("entries", len(entries)).
		Dur("elapsed", time.Since(start)).
		Str("path", csvPath).
		Msg("catalog loaded")

	return entries, nil
}

// parseStringSet accepts either a JSON array or a comma-separated
// string and returns trimmed lowercase values.
func parseStringSet(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var vals []string
		if err := json.Unmarshal([]byte(raw), &vals); err == nil {
			return lowerTrim(vals)
		}
	}
	return lowerTrim(strings.Split(raw, ","))
}

func lowerTrim(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.ToLower(strings.TrimSpace(strings.Trim(v, `'"`)))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func platformSet(win, mac, linux, deck sql.NullBool) []Platform {
	var out []Platform
	if win.Valid && win.Bool {
		out = append(out, PlatformWindows)
	}
	if mac.Valid && mac.Bool {
		out = append(out, PlatformMac)
	}
	if linux.Valid && linux.Bool {
		out = append(out, PlatformLinux)
	}
	if deck.Valid && deck.Bool {
		out = append(out, PlatformSteamDeck)
	}
	return out
}

// stripHTML removes angle-bracket tags from descriptions. The source
// data carries occasional markup in the description column.
func stripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
