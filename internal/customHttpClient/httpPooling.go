package customHttpClient

import (
	"net/http"

	"github.com/jxin/knowledgeqa/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// Pooled returns a client sharing one keep-alive transport. The OpenAI
// provider and embedder both go through this so repeated calls reuse
// connections.
func Pooled() *http.Client {
	return &http.Client{Transport: customTransport}
}
