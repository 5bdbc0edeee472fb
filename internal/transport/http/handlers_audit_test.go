package httptransport

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"profiled/internal/audit"
	"profiled/pkg/domain"
	dErrors "profiled/pkg/domain-errors"
	"profiled/pkg/testutil"
)

func (s *ProfileHandlerSuite) TestListAuditLogs() {
	s.T().Run("returns a page with metadata - 200", func(t *testing.T) {
		mockService, router, _ := s.newHandler(t)
		expectedParams := audit.ListParams{Page: 2, Limit: 5, SortBy: audit.SortByTimestamp, Order: audit.OrderDesc}
		page := &audit.Page{
			Entries: []audit.Entry{{
				ID:        domain.NewAuditLogID(),
				UserID:    s.userID,
				Action:    audit.ActionUpdate,
				Changes:   domain.ChangeSet{"name": {Old: "Ann", New: "Anna"}},
				ChangedBy: s.userID,
				Timestamp: time.Now().UTC(),
			}},
			Pagination: audit.Pagination{
				CurrentPage: 2, TotalPages: 3, TotalCount: 11,
				HasNextPage: true, HasPrevPage: true,
			},
		}
		mockService.EXPECT().ListAuditLogs(gomock.Any(), s.userID, expectedParams).Return(page, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/audit-logs?page=2&limit=5"))

		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.UnmarshalData[audit.Page](t, rr)
		assert.Len(t, got.Entries, 1)
		assert.Equal(t, audit.ActionUpdate, got.Entries[0].Action)
		assert.Equal(t, 11, got.Pagination.TotalCount)
		assert.True(t, got.Pagination.HasNextPage)
	})

	s.T().Run("defaults apply when no query params given", func(t *testing.T) {
		mockService, router, _ := s.newHandler(t)
		expectedParams := audit.ListParams{Page: 1, Limit: 10, SortBy: audit.SortByTimestamp, Order: audit.OrderDesc}
		mockService.EXPECT().ListAuditLogs(gomock.Any(), s.userID, expectedParams).
			Return(&audit.Page{Entries: []audit.Entry{}}, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/audit-logs"))

		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	s.T().Run("invalid pagination - 400 without a service call", func(t *testing.T) {
		mockService, router, _ := s.newHandler(t)
		mockService.EXPECT().ListAuditLogs(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/audit-logs?limit=500"))

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorMessage(t, rr, "limit must be between 1 and 100")
	})

	s.T().Run("service failure - 500 with a generic message", func(t *testing.T) {
		mockService, router, _ := s.newHandler(t)
		mockService.EXPECT().ListAuditLogs(gomock.Any(), s.userID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInternal, "pq: connection reset"))

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/audit-logs"))

		testutil.AssertStatus(t, rr, http.StatusInternalServerError)
		testutil.AssertErrorMessage(t, rr, "internal server error")
	})
}
