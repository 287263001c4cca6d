package acquire

import (
	"net/http"
	"net/url"
	"time"

	"audiototxt/internal/domain"
)

// newHTTPClient builds an HTTP client honoring explicit per-job proxy
// configuration. Proxy settings are never written to process
// environment, so concurrent jobs with different proxies stay isolated.
func newHTTPClient(proxy domain.ProxyConfig, timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	if proxy.Empty() {
		return client
	}

	client.Transport = &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			raw := proxy.HTTPProxy()
			if req.URL.Scheme == "https" {
				raw = proxy.HTTPSProxy()
			}
			if raw == "" {
				return nil, nil
			}
			return url.Parse(raw)
		},
	}
	return client
}
