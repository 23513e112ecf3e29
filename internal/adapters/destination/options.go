package destination

import (
	"net/http"

	"github.com/okian/starsync/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithCallers injects ready-made RPC endpoints instead of dialing XML-RPC.
func WithCallers(common, object Caller) Option {
	return func(c *Client) {
		if common != nil && object != nil {
			c.common = common
			c.object = object
		}
	}
}

// WithTransport sets the HTTP transport used by the XML-RPC clients.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.transport = rt
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
