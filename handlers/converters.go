package handlers

import (
	"encoding/json"
	"net/url"
	"slices"
	"strings"
	"time"

	"servicediscovery/domain"
	"servicediscovery/service"
)

type registrationResponse struct {
	ID    string                   `json:"id"`
	Links domain.RegistrationLinks `json:"links"`
}

type instancesResponse struct {
	Instances []map[string]any `json:"instances"`
}

// instanceFields lists the attributes an instance exposes, in response order.
var instanceFields = []string{"id", "service_name", "ttl", "status", "endpoint", "tags", "last_heartbeat", "links"}

// fromRegistrationBody decodes an already schema-validated registration body.
func fromRegistrationBody(body []byte) (domain.RegistrationRequest, error) {
	var req domain.RegistrationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return domain.RegistrationRequest{}, service.NewValidationError("invalid request body", err.Error())
	}
	return domain.NewRegistrationRequest(req.ServiceName, req.TTL, req.Status, req.Endpoint, req.Tags), nil
}

func toInstance(id string, req domain.RegistrationRequest, links domain.RegistrationLinks, now time.Time) domain.Instance {
	return domain.Instance{
		ID:            id,
		ServiceName:   req.ServiceName,
		TTL:           req.TTL,
		Status:        req.Status,
		Endpoint:      req.Endpoint,
		Tags:          req.Tags,
		LastHeartbeat: formatHeartbeat(now),
		Links:         links,
	}
}

func formatHeartbeat(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func instanceLinks(base, id string) domain.RegistrationLinks {
	self := base + instancesPath + "/" + url.PathEscape(id)
	return domain.RegistrationLinks{
		Self:      self,
		Heartbeat: self + "/heartbeat",
	}
}

// parseFields returns nil when raw is empty, meaning all fields.
func parseFields(raw string) ([]string, error) {
	fields := splitList(raw)
	for _, f := range fields {
		if !slices.Contains(instanceFields, f) {
			return nil, service.NewValidationError("Unknown field: "+f, "")
		}
	}
	return fields, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type instanceFilter struct {
	serviceName string
	status      string
	tags        []string
}

func (f instanceFilter) match(i domain.Instance) bool {
	if f.serviceName != "" && f.serviceName != i.ServiceName {
		return false
	}
	if f.status != "" && !strings.EqualFold(f.status, i.Status) {
		return false
	}
	for _, t := range f.tags {
		if !slices.Contains(i.Tags, t) {
			return false
		}
	}
	return true
}

func (f instanceFilter) apply(instances []domain.Instance) []domain.Instance {
	out := make([]domain.Instance, 0, len(instances))
	for _, i := range instances {
		if f.match(i) {
			out = append(out, i)
		}
	}
	slices.SortFunc(out, func(a, b domain.Instance) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// toInstancesResponse renders instances restricted to fields, or all fields when fields is empty.
func toInstancesResponse(instances []domain.Instance, fields []string) instancesResponse {
	if len(fields) == 0 {
		fields = instanceFields
	}
	out := make([]map[string]any, 0, len(instances))
	for _, i := range instances {
		all := map[string]any{
			"id":             i.ID,
			"service_name":   i.ServiceName,
			"ttl":            i.TTL,
			"status":         i.Status,
			"endpoint":       i.Endpoint,
			"tags":           nonNil(i.Tags),
			"last_heartbeat": i.LastHeartbeat,
			"links":          i.Links,
		}
		view := make(map[string]any, len(fields))
		for _, f := range fields {
			view[f] = all[f]
		}
		out = append(out, view)
	}
	return instancesResponse{Instances: out}
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
