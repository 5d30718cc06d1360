package feed

import (
	"cmp"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpproxy"
)

// ResolveProxies derives the scheme to proxy mapping for one feed.
//
// An explicit proxies mapping is returned as-is. Otherwise a single proxy
// that carries a scheme is keyed by that scheme; a bare host:port is
// prefixed with the feed URL's scheme (http when the feed URL has none)
// and keyed by it. A nil result means no per-feed proxy.
func ResolveProxies(feedURL, proxy string, proxies map[string]string) map[string]string {
	if proxies != nil {
		return maps.Clone(proxies)
	}
	if proxy == "" {
		return nil
	}

	scheme := proxyScheme(proxy)
	if scheme == "" {
		scheme = "http"
		if u, err := url.Parse(feedURL); err == nil && u.Scheme != "" {
			scheme = strings.ToLower(u.Scheme)
		}
		proxy = scheme + "://" + proxy
	}

	return map[string]string{scheme: proxy}
}

func proxyScheme(proxy string) string {
	i := strings.Index(proxy, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(proxy[:i])
}

// proxyFunc turns a resolved mapping into a transport proxy function.
// Without a mapping the environment proxy settings apply.
// The "all" key covers schemes that have no entry of their own.
func proxyFunc(proxies map[string]string) func(*http.Request) (*url.URL, error) {
	if len(proxies) == 0 {
		return http.ProxyFromEnvironment
	}

	config := httpproxy.Config{
		HTTPProxy:  cmp.Or(proxies["http"], proxies["all"]),
		HTTPSProxy: cmp.Or(proxies["https"], proxies["all"]),
	}
	resolve := config.ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return resolve(req.URL)
	}
}
