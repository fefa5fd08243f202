package webhook

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Delivery request headers.
const (
	HeaderSignature  = "X-Mockapi-Signature"
	HeaderTimestamp  = "X-Mockapi-Timestamp"
	HeaderDeliveryID = "X-Mockapi-Delivery-Id"
	HeaderEventType  = "X-Mockapi-Event"
)

const userAgent = "Mockapi-Webhook/1.0"

// NewHTTPClient returns the client used for deliveries. timeout bounds each
// attempt. Redirects are returned to the caller, not followed.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: timeout,
			MaxIdleConnsPerHost:   1,
			IdleConnTimeout:       time.Minute,
		},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// newDeliveryRequest builds the signed POST for one attempt at d.
func newDeliveryRequest(ctx context.Context, target string, signer *Signer, d *delivery, sentAt time.Time) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(d.payload))
	if err != nil {
		return nil, err
	}

	ts := sentAt.Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(HeaderSignature, signer.Sign(ts, d.payload))
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderDeliveryID, d.id)
	req.Header.Set(HeaderEventType, string(d.eventType))
	return req, nil
}
