package handlers

import (
	"time"

	"vsgtalent-backend/internal/database"
	"vsgtalent-backend/internal/hooks"
	"vsgtalent-backend/internal/media"
	"vsgtalent-backend/internal/sideload"
	"vsgtalent-backend/internal/startup"
	"vsgtalent-backend/internal/urlcanon"
)

type Handlers struct {
	db         *database.Database
	processor  *media.Processor
	canon      *urlcanon.Canonicalizer
	hooks      *hooks.Registry
	sideloader *sideload.Fetcher
	uploadsDir string
	siteURL    string
	startedAt  time.Time
}

func New(db *database.Database, registry *hooks.Registry, config *startup.Config) *Handlers {
	processor := media.NewProcessor()
	processor.SkipMarkers = config.SkipMarkers

	return &Handlers{
		db:         db,
		processor:  processor,
		canon:      urlcanon.New(config.CanonicalMediaHost, config.LegacyMediaHosts),
		hooks:      registry,
		sideloader: sideload.New(config.UploadsDir),
		uploadsDir: config.UploadsDir,
		siteURL:    config.SiteURL,
		startedAt:  time.Now(),
	}
}
