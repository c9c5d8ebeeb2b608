package cmd

import (
	"context"
	"fmt"

	"service-map/core/config"
	"service-map/core/feed"
	"service-map/core/feed/source"
	"service-map/core/geo"
	"service-map/core/geolocation"
	"service-map/core/mapping"
	"service-map/core/sdk"
	"service-map/core/server"
	"service-map/core/session"
	"service-map/core/storage"
	"service-map/feature/discovery"
	"service-map/feature/leaflet"
	"service-map/feature/mapkit"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stack holds the long-lived pieces every session of the process shares.
type stack struct {
	cfg     *config.Config
	logger  *zap.Logger
	adapter mapping.Adapter
	sdk     *sdk.ProviderConfig
	geo     *geolocation.Source
	repo    *discovery.Repository

	// feedSource overrides the configured transport (used by watch --replay).
	feedSource func() feed.Source
}

func newStack(cfg *config.Config, logg *zap.Logger, db *gorm.DB, store storage.Client) (*stack, error) {
	if !cfg.Server.IsValidProvider() {
		return nil, fmt.Errorf("invalid map provider %q", cfg.Server.Provider)
	}

	st := &stack{cfg: cfg, logger: logg}
	fit := geo.FitOptions{Padding: cfg.Map.Padding, MinSpan: cfg.Map.MinSpan}

	switch cfg.Server.Provider {
	case server.ProviderMapKit:
		st.adapter = mapkit.New(mapkit.NewMemoryMap(), fit, logg)

		var src sdk.ScriptSource = sdk.StaticScriptSource("/* bundled mapkit */")
		if store != nil {
			src = sdk.NewStorageScriptSource(store, cfg.Storage.Bucket)
		}
		pc := mapkit.ProviderConfig(cfg.SDK, src, mapkit.NewRuntime(), sdk.CredentialFromConfig(cfg.SDK, cfg.Server.ApiKey))
		st.sdk = &pc

	case server.ProviderLeaflet:
		st.adapter = leaflet.New(leaflet.NewMemoryMap(), leaflet.Options{Fit: fit, InitialZoom: cfg.Map.SelfZoom}, logg)
	}

	if loc := cfg.Geolocation.Locator(); loc != nil {
		st.geo = geolocation.NewSource(loc, logg)
	}
	if db != nil {
		st.repo = discovery.NewRepository(db, cfg.Database.Table)
		if err := st.repo.VerifySchema(); err != nil {
			logg.Warn("Provider table schema check failed", zap.Error(err))
		}
	}
	return st, nil
}

// options builds the options of one new session. Each session gets its own
// feed connection so a reset never reuses a closed transport.
func (st *stack) options(ctx context.Context) (session.Options, error) {
	cfg := st.cfg

	var src feed.Source
	if st.feedSource != nil {
		src = st.feedSource()
	} else {
		s, err := source.New(ctx, cfg.Feed, st.logger)
		if err != nil {
			return session.Options{}, fmt.Errorf("failed to create feed source: %w", err)
		}
		src = s
	}

	opts := session.Options{
		Adapter:     st.adapter,
		Surface:     cfg.Map.SurfaceSpec(),
		Center:      cfg.Map.Center(),
		SDK:         st.sdk,
		Geolocation: st.geo,
		GeoOptions:  cfg.Geolocation.Options(),
		Feed:        feed.NewSubscriber(src, cfg.Feed.Buffer(), st.logger),
		Filter:      cfg.Feed.Filter(),
		SelfZoom:    cfg.Map.SelfZoom,
		Logger:      st.logger,
	}
	if st.repo != nil {
		opts.Seed = st.repo.ListEntities
	}
	return opts, nil
}

func (st *stack) builder(ctx context.Context) discovery.Builder {
	return func() (session.Options, error) {
		return st.options(ctx)
	}
}
