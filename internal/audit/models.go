package audit

import (
	"time"

	"profiled/pkg/domain"
	dErrors "profiled/pkg/domain-errors"
)

// Action tags what a mutating operation did to the profile.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Entry is one immutable audit log record. Exactly one entry exists per
// successful mutating operation, carrying exactly the fields that changed.
type Entry struct {
	ID        domain.AuditLogID `json:"id"`
	UserID    domain.UserID     `json:"userId"`
	Action    Action            `json:"action"`
	Changes   domain.ChangeSet  `json:"changes"`
	ChangedBy domain.UserID     `json:"changedBy"`
	Timestamp time.Time         `json:"timestamp"`
	IPAddress string            `json:"ipAddress,omitempty"`
	UserAgent string            `json:"userAgent,omitempty"`
	// Client is a human-readable browser/OS summary parsed from UserAgent.
	Client string `json:"client,omitempty"`
}

// SortField selects the audit log list ordering column.
type SortField string

const (
	SortByTimestamp SortField = "timestamp"
	SortByAction    SortField = "action"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ListParams is a validated pagination/sort request. Page and Limit are
// 1-based positive integers.
type ListParams struct {
	Page   int
	Limit  int
	SortBy SortField
	Order  SortOrder
}

// ParseListParams validates raw query values, applying the defaults
// page=1, limit=10, sortBy=timestamp, sortOrder=desc.
func ParseListParams(page, limit, sortBy, sortOrder string) (ListParams, error) {
	params := ListParams{Page: 1, Limit: 10, SortBy: SortByTimestamp, Order: OrderDesc}

	if page != "" {
		n, ok := parsePositive(page)
		if !ok {
			return ListParams{}, dErrors.New(dErrors.CodeInvalidInput, "page must be a positive integer")
		}
		params.Page = n
	}
	if limit != "" {
		n, ok := parsePositive(limit)
		if !ok || n > 100 {
			return ListParams{}, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 100")
		}
		params.Limit = n
	}
	switch SortField(sortBy) {
	case "", SortByTimestamp:
	case SortByAction:
		params.SortBy = SortByAction
	default:
		return ListParams{}, dErrors.New(dErrors.CodeInvalidInput, "sortBy must be timestamp or action")
	}
	switch SortOrder(sortOrder) {
	case "", OrderDesc:
	case OrderAsc:
		params.Order = OrderAsc
	default:
		return ListParams{}, dErrors.New(dErrors.CodeInvalidInput, "sortOrder must be asc or desc")
	}
	return params, nil
}

func parsePositive(s string) (int, bool) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return 0, false
		}
	}
	return n, n > 0
}

// Pagination describes the returned page relative to the full result set.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"totalCount"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Page is one page of a user's audit trail. Out-of-range pages are empty,
// not an error.
type Page struct {
	Entries    []Entry    `json:"auditLogs"`
	Pagination Pagination `json:"pagination"`
}
