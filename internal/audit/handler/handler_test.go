package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"abcretail/internal/audit/handler/mocks"
	"abcretail/internal/platform/blob"
	dErrors "abcretail/pkg/domain-errors"
	audit "abcretail/pkg/platform/audit"
	"abcretail/pkg/platform/audit/archive"
	"abcretail/pkg/platform/audit/liveview"
	"abcretail/pkg/platform/sentinel"
	"abcretail/pkg/testutil"
)

type AuditHandlerSuite struct {
	suite.Suite
	view     *mocks.MockLiveView
	archives *mocks.MockArchives
	router   chi.Router
}

func TestAuditHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuditHandlerSuite))
}

func (s *AuditHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.view = mocks.NewMockLiveView(ctrl)
	s.archives = mocks.NewMockArchives(ctrl)
	h := New(s.view, s.archives, archive.FormatXLSX, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	h.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *AuditHandlerSuite) TestRecent() {
	records := []audit.Record{{
		Event:     audit.Event{Action: audit.ActionCreate, Entity: audit.EntityOrder, ID: "o-1", Name: "Order for customer c-1"},
		MessageID: "00000000000000000001",
	}}
	s.view.EXPECT().Recent(gomock.Any(), 10).Return(records, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/audit/recent?limit=10"))

	testutil.AssertStatusOK(s.T(), rr)
	got := testutil.UnmarshalResponse[[]audit.Record](s.T(), rr)
	s.Equal(records, *got)
}

func (s *AuditHandlerSuite) TestRecentRejectsBadLimit() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/audit/recent?limit=lots"))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}

func (s *AuditHandlerSuite) TestRecentQueueFailure() {
	s.view.EXPECT().Recent(gomock.Any(), 0).Return(nil, errors.New("redis down"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/audit/recent"))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
}

func (s *AuditHandlerSuite) TestRecentCSV() {
	s.view.EXPECT().ExportCSV(gomock.Any(), gomock.Any(), 0).DoAndReturn(
		func(_ context.Context, w io.Writer, _ int) error {
			_, err := io.WriteString(w, strings.Join(archive.Header, ",")+"\n")
			return err
		})

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/audit/recent.csv"))

	testutil.AssertStatusOK(s.T(), rr)
	s.Equal("text/csv", rr.Header().Get("Content-Type"))
	s.Equal(`attachment; filename="AuditLogs_20250301_093000.csv"`, rr.Header().Get("Content-Disposition"))
	s.True(strings.HasPrefix(rr.Body.String(), "Action,Entity,Name,Id"))
}

func (s *AuditHandlerSuite) TestExportUsesDefaultFormat() {
	file := archive.File{Name: "audit-log-20250301-093000.xlsx", Size: 42}
	s.view.EXPECT().Snapshot(gomock.Any(), archive.FormatXLSX).Return(file, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/audit/export"))

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	got := testutil.UnmarshalResponse[exportResponse](s.T(), rr)
	s.Equal(file.Name, got.File.Name)
}

func (s *AuditHandlerSuite) TestExportFormatOverrideAndValidation() {
	s.view.EXPECT().Snapshot(gomock.Any(), archive.FormatCSV).Return(archive.File{Name: "a.csv"}, nil)
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/audit/export?format=csv"))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/audit/export?format=pdf"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}

func (s *AuditHandlerSuite) TestExportWithoutFileStore() {
	s.view.EXPECT().Snapshot(gomock.Any(), gomock.Any()).Return(archive.File{}, liveview.ErrNoFileStore)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/audit/export"))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, string(dErrors.CodeUnavailable))
}

func (s *AuditHandlerSuite) TestListArchives() {
	files := []archive.File{{Name: "audit-log-20250301-093000.xlsx"}, {Name: "audit-log-20250301-092500.xlsx"}}
	s.archives.EXPECT().ListFiles(gomock.Any()).Return(files, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/audit/archives"))

	testutil.AssertStatusOK(s.T(), rr)
	got := testutil.UnmarshalResponse[[]archive.File](s.T(), rr)
	s.Len(*got, 2)
}

func (s *AuditHandlerSuite) TestGetArchiveStreamsFile() {
	body := "Action,Entity,Name,Id,Queue Inserted At,Event Timestamp\n"
	s.archives.EXPECT().ReadFile(gomock.Any(), "audit-log-20250301-093000.csv").Return(
		archive.File{Name: "audit-log-20250301-093000.csv", Size: int64(len(body)), ContentType: "text/csv"},
		io.NopCloser(strings.NewReader(body)),
		nil,
	)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/audit/archives/audit-log-20250301-093000.csv"))

	testutil.AssertStatusOK(s.T(), rr)
	s.Equal("text/csv", rr.Header().Get("Content-Type"))
	s.Equal(fmt.Sprint(len(body)), rr.Header().Get("Content-Length"))
	s.Equal(body, rr.Body.String())
}

func (s *AuditHandlerSuite) TestGetArchiveErrors() {
	s.archives.EXPECT().ReadFile(gomock.Any(), "missing.xlsx").
		Return(archive.File{}, nil, fmt.Errorf("read archive: %w", sentinel.ErrNotFound))
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/audit/archives/missing.xlsx"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))

	s.archives.EXPECT().ReadFile(gomock.Any(), "bad..name").
		Return(archive.File{}, nil, fmt.Errorf("%w: bad..name", blob.ErrInvalidKey))
	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/audit/archives/bad..name"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}
