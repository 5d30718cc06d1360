package feed

import (
	"net/http"
	"reflect"
	"testing"
)

func TestResolveProxies(t *testing.T) {
	tests := []struct {
		name     string
		feedURL  string
		proxy    string
		proxies  map[string]string
		expected map[string]string
	}{
		{
			name:     "bare proxy takes https feed scheme",
			feedURL:  "https://example.com/feed",
			proxy:    "myproxy:8080",
			expected: map[string]string{"https": "https://myproxy:8080"},
		},
		{
			name:     "bare proxy takes http feed scheme",
			feedURL:  "http://example.com/feed",
			proxy:    "myproxy:8080",
			expected: map[string]string{"http": "http://myproxy:8080"},
		},
		{
			name:     "bare proxy defaults to http",
			feedURL:  "example.com/feed",
			proxy:    "myproxy:8080",
			expected: map[string]string{"http": "http://myproxy:8080"},
		},
		{
			name:     "proxy with scheme is used unmodified",
			feedURL:  "https://example.com/feed",
			proxy:    "socks5://myproxy:1080",
			expected: map[string]string{"socks5": "socks5://myproxy:1080"},
		},
		{
			name:    "explicit mapping wins",
			feedURL: "https://example.com/feed",
			proxy:   "ignored:8080",
			proxies: map[string]string{"https": "http://p:3128"},
			expected: map[string]string{
				"https": "http://p:3128",
			},
		},
		{
			name:     "empty explicit mapping is kept",
			feedURL:  "https://example.com/feed",
			proxy:    "ignored:8080",
			proxies:  map[string]string{},
			expected: map[string]string{},
		},
		{
			name:     "no proxy",
			feedURL:  "https://example.com/feed",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveProxies(tt.feedURL, tt.proxy, tt.proxies)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestResolveProxiesCopiesMapping(t *testing.T) {
	proxies := map[string]string{"http": "http://p:3128"}
	got := ResolveProxies("http://example.com", "", proxies)
	got["http"] = "changed"

	if proxies["http"] != "http://p:3128" {
		t.Error("ResolveProxies must not alias the configured mapping")
	}
}

func TestProxyFuncSchemes(t *testing.T) {
	fn := proxyFunc(map[string]string{"https": "http://secure-proxy:3128"})

	req, _ := http.NewRequest(http.MethodGet, "https://example.com/feed", nil)
	u, err := fn(req)
	if err != nil {
		t.Fatal(err)
	}
	if u == nil || u.Host != "secure-proxy:3128" {
		t.Errorf("Expected https request to use secure-proxy:3128, got %v", u)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://example.com/feed", nil)
	u, err = fn(req)
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Errorf("Expected http request to go direct, got %v", u)
	}
}

func TestProxyFuncAll(t *testing.T) {
	fn := proxyFunc(map[string]string{"all": "http://any-proxy:8080"})

	for _, target := range []string{"http://example.com/a", "https://example.com/b"} {
		req, _ := http.NewRequest(http.MethodGet, target, nil)
		u, err := fn(req)
		if err != nil {
			t.Fatal(err)
		}
		if u == nil || u.Host != "any-proxy:8080" {
			t.Errorf("Expected %s to use any-proxy:8080, got %v", target, u)
		}
	}
}
