package app

import (
	"net"
	"net/http"
	"time"
)

// newSearchHTTPClient returns the HTTP client shared by the HTTP-based
// provider adapters. Pools are sized for a handful of search backends hit
// concurrently; the overall client timeout is a backstop behind the
// per-attempt deadlines applied by the timeout guard.
func newSearchHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}
