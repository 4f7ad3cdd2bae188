// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - UPLOADS_DIR: Path to the media uploads directory (default: /uploads)
//   - DATABASE_DIR: Path to database directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - SITE_URL: Public site URL (default: https://www.vsgtalent.nl)
//   - CANONICAL_MEDIA_HOST: Host all media URLs are rewritten to
//     (default: media.vsgtalent.nl)
//   - LEGACY_MEDIA_HOSTS: Comma-separated hosts to rewrite away from
//     (default: vsgtalent.nl,www.vsgtalent.nl)
//   - MEDIA_SKIP_MARKERS: Comma-separated filename markers that exempt a
//     file from crop and re-encode (default: logo,noresize)
//   - CORS_ORIGINS: Comma-separated origins allowed by CORS in addition to
//     localhost
//   - WEBAUTHN_RP_ID: WebAuthn relying party ID (default: SITE_URL hostname)
//   - WEBAUTHN_ORIGIN: WebAuthn expected origin (default: SITE_URL)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
// Both the database and uploads directories are required and must be
// writable; media processing replaces files in place under uploads.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
