package api

// Build information, overridden at link time with
// -ldflags "-X .../internal/api.Version=...".
var (
	Version   = "dev"
	BuildTime = "unknown"
)
