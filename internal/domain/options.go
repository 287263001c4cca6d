package domain

// ProxyConfig carries explicit per-request proxy settings. Values are
// threaded into each HTTP client and tool invocation rather than written
// to process environment, so concurrent jobs stay independent.
type ProxyConfig struct {
	// Proxy applies to both HTTP and HTTPS unless overridden below.
	Proxy      string
	ProxyHTTP  string
	ProxyHTTPS string
}

// HTTPProxy resolves the effective HTTP proxy URL.
func (p ProxyConfig) HTTPProxy() string {
	if p.ProxyHTTP != "" {
		return p.ProxyHTTP
	}
	return p.Proxy
}

// HTTPSProxy resolves the effective HTTPS proxy URL.
func (p ProxyConfig) HTTPSProxy() string {
	if p.ProxyHTTPS != "" {
		return p.ProxyHTTPS
	}
	return p.Proxy
}

// Empty reports whether no proxy is configured at all.
func (p ProxyConfig) Empty() bool {
	return p.Proxy == "" && p.ProxyHTTP == "" && p.ProxyHTTPS == ""
}

// TranscribeOptions are per-job settings for the transcription call.
type TranscribeOptions struct {
	APIKey       string
	Model        string
	LanguageHint string
	Proxy        ProxyConfig
}
