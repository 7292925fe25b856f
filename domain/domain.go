package domain

import "encoding/json"

// Endpoint is the network address of an instance together with its protocol tag (e.g. "http", "tcp").
type Endpoint struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// RegistrationRequest is the payload of POST /api/v1/instances.
// Built once by NewRegistrationRequest; callers should treat it as read-only.
type RegistrationRequest struct {
	ServiceName string   `json:"service_name"`
	TTL         int      `json:"ttl"` // seconds
	Status      string   `json:"status"`
	Endpoint    Endpoint `json:"endpoint"`
	Tags        []string `json:"tags"`
}

// NewRegistrationRequest builds a RegistrationRequest. Tags are copied and deduplicated keeping first occurrence order;
// nil tags become an empty list so the payload always carries "tags": [].
func NewRegistrationRequest(serviceName string, ttl int, status string, endpoint Endpoint, tags []string) RegistrationRequest {
	seen := make(map[string]struct{}, len(tags))
	set := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		set = append(set, t)
	}
	return RegistrationRequest{
		ServiceName: serviceName,
		TTL:         ttl,
		Status:      status,
		Endpoint:    endpoint,
		Tags:        set,
	}
}

// Credentials hold the registry base URL and bearer token. Resolved once, never persisted.
type Credentials struct {
	BaseURL   string
	AuthToken string
}

// RegistrationLinks are the hypermedia links returned on registration.
type RegistrationLinks struct {
	Self      string `json:"self"`
	Heartbeat string `json:"heartbeat"`
}

// Registration is the registry answer to a successful POST /api/v1/instances.
// Raw keeps the response body as received.
type Registration struct {
	ID    string            `json:"id"`
	Links RegistrationLinks `json:"links"`
	Raw   json.RawMessage   `json:"-"`
}

// Instance is one element of the instances listing.
type Instance struct {
	ID            string            `json:"id,omitempty"`
	ServiceName   string            `json:"service_name,omitempty"`
	TTL           int               `json:"ttl,omitempty"`
	Status        string            `json:"status,omitempty"`
	Endpoint      Endpoint          `json:"endpoint"`
	Tags          []string          `json:"tags,omitempty"`
	LastHeartbeat string            `json:"last_heartbeat,omitempty"` // as sent by the registry, not parsed
	Links         RegistrationLinks `json:"links,omitempty"`
}

// InstanceList is the body of GET /api/v1/instances. Raw keeps the response body as received.
type InstanceList struct {
	Instances []Instance      `json:"instances"`
	Raw       json.RawMessage `json:"-"`
}
