package adapters

import (
	"encoding/json"
	"fmt"
	"strings"

	"servicediscovery/domain"
	"servicediscovery/service"
)

// DefaultRegistryURL is used when neither the bound services nor the caller name a registry URL.
const DefaultRegistryURL = "https://servicediscovery.ng.bluemix.net"

// BoundServicesEnv is the environment variable holding the bound services JSON document.
const BoundServicesEnv = "VCAP_SERVICES"

// LookupEnv matches os.LookupEnv; injected so credentials are resolved from explicit configuration.
type LookupEnv func(key string) (string, bool)

// boundServices is the part of VCAP_SERVICES read here: service_discovery[0].credentials.
type boundServices struct {
	ServiceDiscovery []struct {
		Credentials struct {
			URL       string `json:"url"`
			AuthToken string `json:"auth_token"`
		} `json:"credentials"`
	} `json:"service_discovery"`
}

// ResolveCredentials returns the registry credentials.
//
// When lookupEnv reports VCAP_SERVICES, url and auth_token come from its first service_discovery binding and the
// explicit arguments are ignored. Otherwise authToken is required and url defaults to DefaultRegistryURL.
// Returns configuration_error on a missing token or an unusable VCAP_SERVICES document.
func ResolveCredentials(lookupEnv LookupEnv, url, authToken string) (domain.Credentials, error) {
	if lookupEnv != nil {
		if raw, ok := lookupEnv(BoundServicesEnv); ok {
			return credentialsFromBoundServices(raw)
		}
	}

	if authToken == "" {
		return domain.Credentials{}, service.NewConfigurationError("An auth token is required for Service Discovery", nil)
	}
	if url == "" {
		url = DefaultRegistryURL
	}
	return domain.Credentials{BaseURL: strings.TrimRight(url, "/"), AuthToken: authToken}, nil
}

func credentialsFromBoundServices(raw string) (domain.Credentials, error) {
	var services boundServices
	if err := json.Unmarshal([]byte(raw), &services); err != nil {
		return domain.Credentials{}, service.NewConfigurationError("Invalid "+BoundServicesEnv, fmt.Errorf("decode bound services: %w", err))
	}
	if len(services.ServiceDiscovery) == 0 {
		return domain.Credentials{}, service.NewConfigurationError("No service_discovery binding in "+BoundServicesEnv, nil)
	}

	creds := services.ServiceDiscovery[0].Credentials
	if creds.URL == "" || creds.AuthToken == "" {
		return domain.Credentials{}, service.NewConfigurationError("Incomplete service_discovery credentials in "+BoundServicesEnv, nil)
	}
	return domain.Credentials{BaseURL: strings.TrimRight(creds.URL, "/"), AuthToken: creds.AuthToken}, nil
}
