package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"paperapi/internal/apperr"
	"paperapi/internal/model"
	"paperapi/internal/query"
	repoMocks "paperapi/internal/repository/mocks"
	"paperapi/internal/storage"
	storeMocks "paperapi/internal/storage/mocks"
)

var (
	admin    = model.Actor{UserID: "admin-id", Email: "admin@example.edu", Role: model.RoleAdmin}
	visitor  = model.Actor{UserID: "user-id", Email: "someone@example.edu", Role: model.RoleUser}
	anyCtx   = mock.Anything
	pdfBytes = "%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n"
)

func validUpload() UploadRequest {
	return UploadRequest{
		Input: model.PaperInput{
			Title:        " End Semester ",
			Course:       "bsc",
			Semester:     "1",
			AcademicYear: "2023-24",
			Subject:      "Algorithms",
			SubjectCode:  "CS301",
			Department:   "Computer Science",
		},
		File:        strings.NewReader(pdfBytes),
		FileName:    "algo.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(pdfBytes)),
	}
}

func newTestService(t *testing.T, store storage.Store, repo *repoMocks.MockPaperRepository, logs io.Writer) (*paperService, *Metrics) {
	t.Helper()
	if logs == nil {
		logs = io.Discard
	}
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return NewPaperService(store, repo, zerolog.New(logs), m).(*paperService), m
}

func TestPaperService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		actor      model.Actor
		req        func() UploadRequest
		setupMocks func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository)
		wantErr    error
		wantErrMsg string
		wantField  string
	}{
		{
			name:  "happy path",
			actor: admin,
			req:   validUpload,
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {
				mStore.On("Put", ctx, mock.Anything, "algo.pdf", "application/pdf", int64(len(pdfBytes))).
					Return(storage.StoredRef{Path: "1700000000000-42.pdf", Size: int64(len(pdfBytes))}, nil)
				mRepo.On("Create", ctx, mock.MatchedBy(func(p *model.Paper) bool {
					return p.ID != "" &&
						p.Title == "End Semester" &&
						p.FilePath == "1700000000000-42.pdf" &&
						p.FileName == "algo.pdf" &&
						p.SubjectCode != nil && *p.SubjectCode == "CS301" &&
						p.UploadedBy != nil && *p.UploadedBy == "admin-id"
				})).Return(&model.Paper{ID: "gen-id"}, nil)
			},
		},
		{
			name:       "non admin rejected",
			actor:      visitor,
			req:        validUpload,
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {},
			wantErr:    apperr.ErrForbidden,
		},
		{
			name:       "anonymous rejected",
			actor:      model.Actor{},
			req:        validUpload,
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {},
			wantErr:    apperr.ErrUnauthorized,
		},
		{
			name:  "validation before store",
			actor: admin,
			req: func() UploadRequest {
				r := validUpload()
				r.Input.Department = "  "
				return r
			},
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {},
			wantField:  "department",
		},
		{
			name:  "missing file",
			actor: admin,
			req: func() UploadRequest {
				r := validUpload()
				r.File = nil
				return r
			},
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {},
			wantField:  "file",
		},
		{
			name:  "store rejects media type",
			actor: admin,
			req:   validUpload,
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.StoredRef{}, apperr.ErrUnsupportedMediaType)
			},
			wantErr: apperr.ErrUnsupportedMediaType,
		},
		{
			name:  "repository error with successful cleanup",
			actor: admin,
			req:   validUpload,
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.StoredRef{Path: "a.pdf", Size: 10}, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", anyCtx, "a.pdf").Return(nil)
			},
			wantErrMsg: "save paper: db fail",
		},
		{
			name:  "repository error with failed cleanup",
			actor: admin,
			req:   validUpload,
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.StoredRef{Path: "a.pdf", Size: 10}, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", anyCtx, "a.pdf").Return(errors.New("disk gone"))
			},
			wantErrMsg: "cleanup failed: disk gone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStore)
			mRepo := new(repoMocks.MockPaperRepository)
			svc, _ := newTestService(t, mStore, mRepo, nil)

			tt.setupMocks(mStore, mRepo)

			p, err := svc.Upload(ctx, tt.actor, tt.req())

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
			case tt.wantErrMsg != "":
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			case tt.wantField != "":
				var ve *apperr.ValidationError
				if assert.ErrorAs(t, err, &ve) {
					assert.Equal(t, tt.wantField, ve.Field)
				}
				mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			default:
				assert.NoError(t, err)
				assert.NotNil(t, p)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestPaperService_Upload_CleanupFailureLogged(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStore)
	mRepo := new(repoMocks.MockPaperRepository)
	var logs bytes.Buffer
	svc, m := newTestService(t, mStore, mRepo, &logs)

	mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.StoredRef{Path: "orphan.pdf", Size: 10}, nil)
	mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
	mStore.On("Delete", anyCtx, "orphan.pdf").Return(errors.New("disk gone"))

	_, err := svc.Upload(ctx, admin, validUpload())
	require.Error(t, err)

	out := logs.String()
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"event":"upload_cleanup_failed"`)
	assert.Contains(t, out, `"path":"orphan.pdf"`)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("failed")))
}

func TestPaperService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("composes filter once and paginates", func(t *testing.T) {
		mRepo := new(repoMocks.MockPaperRepository)
		svc, _ := newTestService(t, nil, mRepo, nil)

		want := query.Filter{Course: "bsc", Subject: "algo"}
		page := query.PageRequest{Page: 2, Size: 10}
		mRepo.On("List", anyCtx, want, page).Return([]model.Paper{{ID: "1"}, {ID: "2"}}, nil)
		mRepo.On("Count", anyCtx, want).Return(12, nil)

		res, err := svc.List(ctx, query.Params{Course: "bsc", Semester: "all", Subject: " algo "}, page)
		require.NoError(t, err)
		assert.Len(t, res.Papers, 2)
		assert.Equal(t, query.Pagination{Page: 2, Limit: 10, Total: 12, Pages: 2}, res.Pagination)
		mRepo.AssertExpectations(t)
	})

	t.Run("zero page request uses defaults", func(t *testing.T) {
		mRepo := new(repoMocks.MockPaperRepository)
		svc, _ := newTestService(t, nil, mRepo, nil)

		page := query.PageRequest{Page: 1, Size: query.DefaultPublicLimit}
		mRepo.On("List", anyCtx, query.Filter{}, page).Return(nil, nil)
		mRepo.On("Count", anyCtx, query.Filter{}).Return(0, nil)

		res, err := svc.List(ctx, query.Params{}, query.PageRequest{})
		require.NoError(t, err)
		assert.NotNil(t, res.Papers)
		assert.Empty(t, res.Papers)
		assert.Equal(t, 0, res.Pagination.Pages)
	})

	t.Run("count error", func(t *testing.T) {
		mRepo := new(repoMocks.MockPaperRepository)
		svc, _ := newTestService(t, nil, mRepo, nil)

		mRepo.On("List", anyCtx, mock.Anything, mock.Anything).Return([]model.Paper{}, nil)
		mRepo.On("Count", anyCtx, mock.Anything).Return(0, errors.New("db fail"))

		res, err := svc.List(ctx, query.Params{}, query.PageRequest{Page: 1, Size: 10})
		assert.EqualError(t, err, "db fail")
		assert.Nil(t, res)
	})
}

func TestPaperService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("empty id", func(t *testing.T) {
		svc, _ := newTestService(t, nil, new(repoMocks.MockPaperRepository), nil)
		_, err := svc.Get(ctx, "")
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockPaperRepository)
		svc, _ := newTestService(t, nil, mRepo, nil)
		mRepo.On("FindByID", ctx, "missing").Return(nil, apperr.ErrNotFound)

		_, err := svc.Get(ctx, "missing")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestPaperService_Download(t *testing.T) {
	ctx := context.Background()
	paper := func() *model.Paper {
		return &model.Paper{ID: "p1", FileName: "algo.pdf", FilePath: "p1.pdf", FileSize: 7, DownloadCount: 4}
	}

	t.Run("opens file then counts", func(t *testing.T) {
		mStore := new(storeMocks.MockStore)
		mRepo := new(repoMocks.MockPaperRepository)
		svc, m := newTestService(t, mStore, mRepo, nil)

		body := &closeTracker{Reader: strings.NewReader(pdfBytes)}
		mRepo.On("FindByID", ctx, "p1").Return(paper(), nil)
		mStore.On("Get", ctx, "p1.pdf").Return(body, storage.ObjectInfo{Size: int64(len(pdfBytes))}, nil)
		mRepo.On("IncrementDownload", ctx, "p1").Return(nil)

		dl, err := svc.Download(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, int64(len(pdfBytes)), dl.Size)
		assert.Equal(t, int64(5), dl.Paper.DownloadCount)
		assert.False(t, body.closed)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.downloads))
	})

	t.Run("missing file leaves counter", func(t *testing.T) {
		mStore := new(storeMocks.MockStore)
		mRepo := new(repoMocks.MockPaperRepository)
		svc, m := newTestService(t, mStore, mRepo, nil)

		mRepo.On("FindByID", ctx, "p1").Return(paper(), nil)
		mStore.On("Get", ctx, "p1.pdf").Return(nil, storage.ObjectInfo{}, apperr.ErrNotFound)

		_, err := svc.Download(ctx, "p1")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		mRepo.AssertNotCalled(t, "IncrementDownload", mock.Anything, mock.Anything)
		assert.Equal(t, 0.0, testutil.ToFloat64(m.downloads))
	})

	t.Run("failed increment closes body", func(t *testing.T) {
		mStore := new(storeMocks.MockStore)
		mRepo := new(repoMocks.MockPaperRepository)
		svc, _ := newTestService(t, mStore, mRepo, nil)

		body := &closeTracker{Reader: strings.NewReader(pdfBytes)}
		mRepo.On("FindByID", ctx, "p1").Return(paper(), nil)
		mStore.On("Get", ctx, "p1.pdf").Return(body, storage.ObjectInfo{}, nil)
		mRepo.On("IncrementDownload", ctx, "p1").Return(apperr.ErrNotFound)

		_, err := svc.Download(ctx, "p1")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.True(t, body.closed)
	})

	t.Run("unknown paper", func(t *testing.T) {
		mStore := new(storeMocks.MockStore)
		mRepo := new(repoMocks.MockPaperRepository)
		svc, _ := newTestService(t, mStore, mRepo, nil)

		mRepo.On("FindByID", ctx, "nope").Return(nil, apperr.ErrNotFound)

		_, err := svc.Download(ctx, "nope")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		mStore.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestPaperService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		actor      model.Actor
		setupMocks func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository)
		wantErr    error
		wantErrMsg string
	}{
		{
			name:  "happy path",
			actor: admin,
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {
				mRepo.On("FindByID", ctx, "p1").Return(&model.Paper{ID: "p1", FilePath: "p1.pdf"}, nil)
				mStore.On("Delete", ctx, "p1.pdf").Return(nil)
				mRepo.On("Delete", ctx, "p1").Return(nil)
			},
		},
		{
			name:       "non admin rejected",
			actor:      visitor,
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {},
			wantErr:    apperr.ErrForbidden,
		},
		{
			name:  "missing paper has no side effects",
			actor: admin,
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {
				mRepo.On("FindByID", ctx, "p1").Return(nil, apperr.ErrNotFound)
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name:  "missing file still removes row",
			actor: admin,
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {
				mRepo.On("FindByID", ctx, "p1").Return(&model.Paper{ID: "p1", FilePath: "p1.pdf"}, nil)
				mStore.On("Delete", ctx, "p1.pdf").Return(apperr.ErrNotFound)
				mRepo.On("Delete", ctx, "p1").Return(nil)
			},
		},
		{
			name:  "storage failure keeps row",
			actor: admin,
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {
				mRepo.On("FindByID", ctx, "p1").Return(&model.Paper{ID: "p1", FilePath: "p1.pdf"}, nil)
				mStore.On("Delete", ctx, "p1.pdf").Return(errors.New("permission denied"))
			},
			wantErrMsg: "delete file: permission denied",
		},
		{
			name:  "row vanished concurrently",
			actor: admin,
			setupMocks: func(mStore *storeMocks.MockStore, mRepo *repoMocks.MockPaperRepository) {
				mRepo.On("FindByID", ctx, "p1").Return(&model.Paper{ID: "p1", FilePath: "p1.pdf"}, nil)
				mStore.On("Delete", ctx, "p1.pdf").Return(nil)
				mRepo.On("Delete", ctx, "p1").Return(apperr.ErrNotFound)
			},
			wantErr: apperr.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStore)
			mRepo := new(repoMocks.MockPaperRepository)
			svc, _ := newTestService(t, mStore, mRepo, nil)

			tt.setupMocks(mStore, mRepo)

			err := svc.Delete(ctx, tt.actor, "p1")

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrMsg != "":
				assert.EqualError(t, err, tt.wantErrMsg)
				mRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			default:
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestPaperService_Stats(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockPaperRepository)
	svc, _ := newTestService(t, nil, mRepo, nil)
	svc.now = func() time.Time { return time.Date(2024, time.March, 17, 22, 30, 0, 0, time.FixedZone("WIB", 7*3600)) }

	since := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	mRepo.On("Stats", ctx, since).Return(&model.Stats{TotalPapers: 3, ThisMonth: 1}, nil)

	st, err := svc.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalPapers)

	_, err = svc.Stats(ctx, visitor)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	mRepo.AssertExpectations(t)
}

func TestMonthStart(t *testing.T) {
	in := time.Date(2024, time.January, 1, 3, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	assert.Equal(t, time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), monthStart(in))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}
