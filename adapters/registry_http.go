package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"servicediscovery/domain"
	"servicediscovery/helpers"
	"servicediscovery/interfaces"
	"servicediscovery/service"
)

// DefaultRequestTimeout bounds every registry call when the caller's context carries no deadline.
const DefaultRequestTimeout = 10 * time.Second

const instancesPath = "/api/v1/instances"

// RegistryHTTP creates an interfaces.Registry talking to the registry REST API at creds.BaseURL.
// Panics on empty base URL or nil client. A timeout <= 0 selects DefaultRequestTimeout.
//
// Called from sdclient when building publishers and locators, and from cmd/sdpublish.
func RegistryHTTP(creds domain.Credentials, client *http.Client, timeout time.Duration) interfaces.Registry {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &registryHTTP{
		baseURL: strings.TrimRight(helpers.StrPanic(creds.BaseURL, "adapters.registry_http.go: baseURL is required"), "/"),
		token:   creds.AuthToken,
		client:  helpers.NilPanic(client, "adapters.registry_http.go: http client is required"),
		timeout: timeout,
	}
}

// registryHTTP implements interfaces.Registry. Every call carries "Authorization: Bearer {token}" and maps the
// response status with service.FromStatus; transport failures become transport_error.
type registryHTTP struct {
	baseURL string
	token   string
	client  *http.Client
	timeout time.Duration
}

// ListInstances performs GET baseURL/api/v1/instances{query}. 410 is not an error for lookups.
func (r *registryHTTP) ListInstances(ctx context.Context, filters domain.InstanceFilters) (domain.InstanceList, error) {
	body, err := r.do(ctx, service.OpLookup, http.MethodGet, r.baseURL+instancesPath+filters.QueryString(), nil, false)
	if err != nil {
		return domain.InstanceList{}, err
	}

	var list domain.InstanceList
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &list); err != nil {
			return domain.InstanceList{}, service.NewTransportError("Malformed service lookup response", fmt.Errorf("decode instances: %w", err))
		}
	}
	list.Raw = body
	return list, nil
}

// Register performs POST baseURL/api/v1/instances with the JSON registration payload and reads id and links.heartbeat.
func (r *registryHTTP) Register(ctx context.Context, req domain.RegistrationRequest) (domain.Registration, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return domain.Registration{}, service.NewValidationError("Invalid registration payload", err.Error())
	}

	body, err := r.do(ctx, service.OpRegister, http.MethodPost, r.baseURL+instancesPath, payload, false)
	if err != nil {
		return domain.Registration{}, err
	}

	var reg domain.Registration
	if err := json.Unmarshal(body, &reg); err != nil {
		return domain.Registration{}, service.NewTransportError("Malformed service registration response", fmt.Errorf("decode registration: %w", err))
	}
	if reg.ID == "" || reg.Links.Heartbeat == "" {
		return domain.Registration{}, service.NewTransportError("Malformed service registration response",
			fmt.Errorf("registration response misses id or links.heartbeat: %s", body))
	}
	reg.Raw = body
	return reg, nil
}

// Heartbeat performs PUT on the heartbeat link. 410 means the instance is gone.
func (r *registryHTTP) Heartbeat(ctx context.Context, heartbeatURL string) error {
	_, err := r.do(ctx, service.OpHeartbeat, http.MethodPut, heartbeatURL, nil, true)
	return err
}

// Deregister performs DELETE baseURL/api/v1/instances/{id}; id is path-escaped.
func (r *registryHTTP) Deregister(ctx context.Context, id string) error {
	_, err := r.do(ctx, service.OpDeregister, http.MethodDelete, r.baseURL+instancesPath+"/"+url.PathEscape(id), nil, true)
	return err
}

// do sends one request and returns the response body for every status FromStatus does not map.
func (r *registryHTTP) do(ctx context.Context, op service.Operation, method, reqURL string, payload []byte, allowGone bool) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, service.NewTransportError(op.TransportMessage(), err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, service.NewTransportError(op.TransportMessage(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, service.NewTransportError(op.TransportMessage(), fmt.Errorf("read response body: %w", err))
	}
	if err := service.FromStatus(op, resp.StatusCode, body, allowGone); err != nil {
		return nil, err
	}
	return body, nil
}
