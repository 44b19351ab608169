package scrape

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// NewClient builds the HTTP client shared by all fetchers. The forum
// and wiki both reject default Go user agents, so a browser string is
// mandatory.
func NewClient(userAgent string) *resty.Client {
	return resty.New().
		SetTimeout(20 * time.Second).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(2).
		SetRetryWaitTime(1500 * time.Millisecond)
}
