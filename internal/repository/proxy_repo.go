package repository

// ProxyRotator hands out one proxy endpoint per job and turns it into renderer launch flags.
type ProxyRotator interface {
	// NextProxy returns the proxy for the next job, or "" when none is configured.
	NextProxy() string
	// BuildLaunchArgs returns the renderer launch flags for the given proxy.
	BuildLaunchArgs(proxy string) []string
}
