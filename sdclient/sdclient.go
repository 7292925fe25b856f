// Package sdclient wires the registry HTTP client, the Publisher and the Locator from one Config.
package sdclient

import (
	"net/http"
	"os"
	"time"

	"servicediscovery/adapters"
	"servicediscovery/domain"
	"servicediscovery/interfaces"
	"servicediscovery/service"

	"github.com/go-kit/log"
)

// Config configures a Client. Zero values select defaults.
type Config struct {
	// URL of the registry. Defaults to adapters.DefaultRegistryURL; ignored when bound services are present.
	URL string
	// AuthToken is the registry bearer token. Required unless bound services are present.
	AuthToken string
	// LookupEnv reads the bound services document. Defaults to os.LookupEnv.
	LookupEnv adapters.LookupEnv
	// HTTPClient overrides the client built from HTTP2 and RequestTimeout.
	HTTPClient *http.Client
	HTTP2      bool
	// RequestTimeout bounds each registry call whose context has no deadline.
	RequestTimeout time.Duration
	Logger         log.Logger
}

// Client holds resolved credentials and the registry transport shared by the publishers and locators it builds.
type Client struct {
	creds    domain.Credentials
	registry interfaces.Registry
	logger   log.Logger
}

// New resolves credentials once and builds the registry client.
// Returns configuration_error when no usable credentials are found.
func New(cfg Config) (*Client, error) {
	lookupEnv := cfg.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = adapters.DefaultRequestTimeout
	}

	creds, err := adapters.ResolveCredentials(lookupEnv, cfg.URL, cfg.AuthToken)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient, err = adapters.NewHTTPClient(timeout, cfg.HTTP2)
		if err != nil {
			return nil, service.NewConfigurationError("Invalid HTTP transport configuration", err)
		}
	}

	return &Client{
		creds:    creds,
		registry: adapters.RegistryHTTP(creds, httpClient, timeout),
		logger:   logger,
	}, nil
}

// BaseURL is the resolved registry URL.
func (c *Client) BaseURL() string {
	return c.creds.BaseURL
}

// Registry exposes the raw registry calls.
func (c *Client) Registry() interfaces.Registry {
	return c.registry
}

// NewPublisher creates an unregistered Publisher for req. opts are applied after the client logger.
func (c *Client) NewPublisher(req domain.RegistrationRequest, opts ...service.PublisherOption) (*service.Publisher, error) {
	opts = append([]service.PublisherOption{service.WithLogger(c.logger)}, opts...)
	return service.NewPublisher(c.registry, req, opts...)
}

func (c *Client) NewLocator() *service.Locator {
	return service.NewLocator(c.registry, c.logger)
}
