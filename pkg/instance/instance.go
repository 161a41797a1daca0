package instance

import (
	"os"

	"github.com/angelmondragon/storefront-checkout/pkg/env"
)

// ID identifies the running api process in logs: STOREFRONT_INSTANCE_ID, then
// the platform dyno name, then the hostname.
func ID() string {
	if id, ok := env.Lookup("STOREFRONT_INSTANCE_ID", "DYNO"); ok {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
