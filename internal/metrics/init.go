package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Upload and conversion pipeline ---
	for _, status := range []string{"success", "error"} {
		UploadsTotal.WithLabelValues(status)
		SideloadsTotal.WithLabelValues(status)
	}
	for _, format := range []string{"avif", "webp", "jpeg"} {
		ConversionsTotal.WithLabelValues(format, "success")
		ConversionsTotal.WithLabelValues(format, "error")
	}

	// --- Content library gauges ---
	for _, t := range []string{"post", "evenement", "sponsor"} {
		ContentItemsTotal.WithLabelValues(t)
	}
	for _, t := range []string{"image", "video", "other"} {
		AttachmentsTotal.WithLabelValues(t)
	}
	for _, tax := range []string{"competitie", "seizoen"} {
		TermsTotal.WithLabelValues(tax)
	}

	// --- Database storage files ---
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	// --- DB query operations ---
	for _, op := range []string{"initialize_schema", "list_content", "get_content",
		"get_meta", "set_meta", "list_gallery_rows", "update_gallery",
		"create_attachment", "update_attachment", "rename_attachment",
		"list_terms", "get_option", "set_option",
		"create_session", "validate_session", "delete_session"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	// --- Authentication ---
	for _, status := range []string{"success", "failure", "locked"} {
		AuthAttemptsTotal.WithLabelValues(status)
	}
}
