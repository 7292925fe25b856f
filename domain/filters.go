package domain

import (
	"net/url"
	"strings"
)

// InstanceFilters narrows GET /api/v1/instances. Empty fields are not sent.
type InstanceFilters struct {
	Fields      string // comma separated list of fields to include
	Tags        string // comma separated list of tags instances must carry
	ServiceName string
	Status      string
}

// QueryString serializes the non-empty filters in the order fields, tags, service_name, status.
// The first included filter is prefixed with "?", the rest joined with "&". No filters yield "".
func (f InstanceFilters) QueryString() string {
	pairs := [][2]string{
		{"fields", f.Fields},
		{"tags", f.Tags},
		{"service_name", f.ServiceName},
		{"status", f.Status},
	}

	var b strings.Builder
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}
	return b.String()
}
