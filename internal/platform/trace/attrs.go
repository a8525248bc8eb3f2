package trace

// Span attribute keys for lookup spans.
const (
	LookupSubmission = "tikdl.lookup.submission"
	LookupLinkHost   = "tikdl.lookup.link_host"
	LookupKind       = "tikdl.lookup.media_kind"
	LookupErrorKind  = "tikdl.lookup.error_kind"
	LookupUpstream   = "tikdl.lookup.upstream_code"
)
