// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package supervisor

import (
	"context"
	"time"

	"github.com/playwise/playwise/internal/catalog"
	"github.com/playwise/playwise/internal/logging"
	"github.com/playwise/playwise/internal/metrics"
)

// CatalogSource loads catalog entries from the configured path.
// Satisfied by *catalog.Loader.
type CatalogSource interface {
	Load(ctx context.Context, csvPath string) ([]*catalog.Entry, error)
}

// CatalogRefreshService periodically reloads the catalog and swaps the
// store's active generation. A failed load keeps the previous
// generation serving; the failure is counted and logged, never fatal,
// so a transient bad file cannot crash-loop the data layer.
type CatalogRefreshService struct {
	source    CatalogSource
	store     *catalog.Store
	csvPath   string
	interval  time.Duration
	onRefresh func()
	name      string
}

// NewCatalogRefreshService creates the refresher. onRefresh runs after
// every successful swap (cache invalidation); nil is allowed.
func NewCatalogRefreshService(source CatalogSource, store *catalog.Store, csvPath string, interval time.Duration, onRefresh func()) *CatalogRefreshService {
	return &CatalogRefreshService{
		source:    source,
		store:     store,
		csvPath:   csvPath,
		interval:  interval,
		onRefresh: onRefresh,
		name:      "catalog-refresher",
	}
}

// Serve implements suture.Service. A non-positive interval parks the
// service until shutdown so the tree shape stays uniform whether or
// not refresh is enabled.
func (s *CatalogRefreshService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *CatalogRefreshService) refresh(ctx context.Context) {
	log := logging.With().Str("component", s.name).Logger()

	entries, err := s.source.Load(ctx, s.csvPath)
	if err != nil {
		metrics.CatalogRefreshTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("path", s.csvPath).Msg("Catalog refresh failed, keeping previous generation")
		return
	}

	s.store.Replace(entries)
	metrics.CatalogRefreshTotal.WithLabelValues("success").Inc()
	metrics.CatalogEntries.Set(float64(len(entries)))
	if s.onRefresh != nil {
		s.onRefresh()
	}
	log.Info().Int("entries", len(entries)).Msg("Catalog refreshed")
}

// String implements fmt.Stringer; suture uses it in event logs.
func (s *CatalogRefreshService) String() string {
	return s.name
}

// ArtifactReloader reloads model artifacts from a directory.
// Satisfied by *collab.Provider and *vecindex.BruteForce.
type ArtifactReloader interface {
	Load(dir string) error
}

// ModelReloadService periodically reloads recommendation artifacts
// (collaborative model, similarity index) so retrained models go live
// without a restart.
type ModelReloadService struct {
	reloader ArtifactReloader
	dir      string
	interval time.Duration
	onReload func()
	name     string
}

// NewModelReloadService creates a reload service. name distinguishes
// multiple reloaders in suture event logs.
func NewModelReloadService(name string, reloader ArtifactReloader, dir string, interval time.Duration, onReload func()) *ModelReloadService {
	return &ModelReloadService{
		reloader: reloader,
		dir:      dir,
		interval: interval,
		onReload: onReload,
		name:     name,
	}
}

// Serve implements suture.Service.
func (s *ModelReloadService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			log := logging.With().Str("component", s.name).Logger()
			if err := s.reloader.Load(s.dir); err != nil {
				log.Warn().Err(err).Str("dir", s.dir).Msg("Artifact reload failed, keeping previous model")
				continue
			}
			if s.onReload != nil {
				s.onReload()
			}
			log.Info().Str("dir", s.dir).Msg("Artifacts reloaded")
		}
	}
}

// String implements fmt.Stringer; suture uses it in event logs.
func (s *ModelReloadService) String() string {
	return s.name
}
