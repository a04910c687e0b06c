package search

import (
	"fmt"
	"strings"

	"inspection-portal/internal/models"
)

// FilterParams narrows an admin search
type FilterParams struct {
	Query    string
	Statuses []models.RequestStatus
	Type     models.RequestType
	Role     models.Role
	Limit    int64
}

func (p FilterParams) withDefaults() FilterParams {
	if p.Limit == 0 {
		p.Limit = 20
	}
	return p
}

// requestFilter builds the Meilisearch filter expression for the requests index
func (p FilterParams) requestFilter() string {
	var filters []string

	if len(p.Statuses) > 0 {
		statusFilters := make([]string, len(p.Statuses))
		for i, st := range p.Statuses {
			statusFilters[i] = fmt.Sprintf("status = %s", quote(string(st)))
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(statusFilters, " OR ")))
	}

	if p.Type != "" {
		filters = append(filters, fmt.Sprintf("req_type = %s", quote(string(p.Type))))
	}

	return strings.Join(filters, " AND ")
}

// userFilter builds the Meilisearch filter expression for the users index
func (p FilterParams) userFilter() string {
	if p.Role == "" {
		return ""
	}
	return fmt.Sprintf("role = %s", quote(string(p.Role)))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// ParseStatuses turns a comma-separated list into known statuses, skipping unknown ones
func ParseStatuses(raw string) []models.RequestStatus {
	var out []models.RequestStatus
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		for _, st := range models.AllStatuses {
			if strings.EqualFold(part, string(st)) {
				out = append(out, st)
			}
		}
	}
	return out
}
