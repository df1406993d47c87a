package providers

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpproxy"
)

// ProxySource identifies where a client's resolved proxy came from.
type ProxySource int

const (
	// ProxySourceNone means no proxy applies to the client's connections.
	ProxySourceNone ProxySource = iota

	// ProxySourceExplicit means the proxy was configured on the client.
	// Environment proxy discovery is disabled for this client.
	ProxySourceExplicit

	// ProxySourceEnvironment means the proxy came from HTTP_PROXY /
	// HTTPS_PROXY, read once at client construction.
	ProxySourceEnvironment
)

// String returns the source name for logging.
func (s ProxySource) String() string {
	switch s {
	case ProxySourceExplicit:
		return "explicit"
	case ProxySourceEnvironment:
		return "environment"
	default:
		return "none"
	}
}

// ResolvedProxy is the proxy decision for one client instance. It is
// computed once at construction and never mutated afterwards, so concurrent
// requests need no synchronization to read it.
type ResolvedProxy struct {
	// URL is the proxy URL to apply, nil when Source is ProxySourceNone.
	// For ProxySourceEnvironment this is the HTTPS_PROXY (preferred) or
	// HTTP_PROXY value; NO_PROXY exclusions still apply per request.
	URL *url.URL

	// Source records where the proxy came from.
	Source ProxySource

	// envFunc applies NO_PROXY matching for environment-sourced proxies.
	envFunc func(*url.URL) (*url.URL, error)
}

// ResolveProxy decides which proxy applies to a client given its optional
// explicit proxy URL.
//
// An explicit value must start with http:// or https://; anything else
// fails with an error matching ErrInvalidProxyConfig. An explicit proxy
// disables environment discovery entirely, so a client never double-applies
// a proxy from both sources. With no explicit value, the process
// environment (HTTP_PROXY, HTTPS_PROXY, NO_PROXY, and lowercase variants)
// is read once, here, not per request.
func ResolveProxy(explicit string) (ResolvedProxy, error) {
	if explicit != "" {
		if !strings.HasPrefix(explicit, "http://") && !strings.HasPrefix(explicit, "https://") {
			return ResolvedProxy{}, &InvalidProxyConfigError{
				ProxyURL: explicit,
				Reason:   "scheme must be http or https",
			}
		}

		u, err := url.Parse(explicit)
		if err != nil {
			return ResolvedProxy{}, &InvalidProxyConfigError{
				ProxyURL: explicit,
				Reason:   err.Error(),
			}
		}

		return ResolvedProxy{URL: u, Source: ProxySourceExplicit}, nil
	}

	env := httpproxy.FromEnvironment()
	raw := env.HTTPSProxy
	if raw == "" {
		raw = env.HTTPProxy
	}
	if raw == "" {
		return ResolvedProxy{Source: ProxySourceNone}, nil
	}

	u, err := parseEnvProxy(raw)
	if err != nil {
		// Ambient values are best effort: a broken environment variable
		// must not take the client down the way a broken explicit value does.
		return ResolvedProxy{Source: ProxySourceNone}, nil
	}

	return ResolvedProxy{
		URL:     u,
		Source:  ProxySourceEnvironment,
		envFunc: env.ProxyFunc(),
	}, nil
}

// parseEnvProxy parses an environment proxy value, allowing the bare
// host:port form conventionally accepted for HTTP_PROXY.
func parseEnvProxy(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	return url.Parse(raw)
}

// ProxyFunc returns the function to install as http.Transport.Proxy.
// It returns nil when no proxy applies, which disables proxying entirely
// (including ambient environment settings).
func (r ResolvedProxy) ProxyFunc() func(*http.Request) (*url.URL, error) {
	switch r.Source {
	case ProxySourceExplicit:
		return http.ProxyURL(r.URL)
	case ProxySourceEnvironment:
		fn := r.envFunc
		return func(req *http.Request) (*url.URL, error) {
			return fn(req.URL)
		}
	default:
		return nil
	}
}

// ProxyHost returns the proxy host for logging and events, or "" when no
// proxy applies. The userinfo portion is never included.
func (r ResolvedProxy) ProxyHost() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Host
}
