package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"paperapi/internal/apperr"
	"paperapi/internal/model"
	"paperapi/internal/query"
	"paperapi/internal/repository"
	"paperapi/internal/storage"
)

// UploadRequest carries one admin upload: descriptive fields plus the file stream.
type UploadRequest struct {
	Input       model.PaperInput
	File        io.Reader
	FileName    string
	ContentType string
	// Size is the declared length in bytes, or -1 when unknown.
	Size int64
}

// PaperListResult is one page of papers with its pagination block.
type PaperListResult struct {
	Papers     []model.Paper    `json:"papers"`
	Pagination query.Pagination `json:"pagination"`
}

// Download is an opened paper payload. The caller must close Body.
type Download struct {
	Paper *model.Paper
	Body  io.ReadCloser
	Size  int64
}

// PaperService defines the use cases of the paper catalog.
type PaperService interface {
	// Upload stores the file, then records its metadata. If the record cannot be
	// written the stored file is removed again.
	Upload(ctx context.Context, actor model.Actor, req UploadRequest) (*model.Paper, error)

	// List returns one page of papers matching the public filter parameters.
	List(ctx context.Context, params query.Params, page query.PageRequest) (*PaperListResult, error)

	// Get returns a single paper by its ID.
	Get(ctx context.Context, id string) (*model.Paper, error)

	// Download opens the paper's file and counts the download.
	Download(ctx context.Context, id string) (*Download, error)

	// Delete removes a paper's file and record.
	Delete(ctx context.Context, actor model.Actor, id string) error

	// Stats summarizes the catalog for the admin dashboard.
	Stats(ctx context.Context, actor model.Actor) (*model.Stats, error)
}

type paperService struct {
	store   storage.Store
	repo    repository.PaperRepository
	log     zerolog.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewPaperService constructs a new PaperService. metrics may be nil.
func NewPaperService(store storage.Store, repo repository.PaperRepository, log zerolog.Logger, metrics *Metrics) PaperService {
	return &paperService{
		store:   store,
		repo:    repo,
		log:     log.With().Str("component", "paper_service").Logger(),
		metrics: metrics,
		now:     time.Now,
	}
}

func requireAdmin(actor model.Actor) error {
	if actor.UserID == "" {
		return apperr.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return apperr.ErrForbidden
	}
	return nil
}

func (s *paperService) Upload(ctx context.Context, actor model.Actor, req UploadRequest) (*model.Paper, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	in := req.Input.Normalize()
	if err := in.Validate(); err != nil {
		s.metrics.upload("invalid")
		return nil, err
	}
	if req.File == nil {
		s.metrics.upload("invalid")
		return nil, &apperr.ValidationError{Field: "file", Message: "is required"}
	}

	ref, err := s.store.Put(ctx, req.File, req.FileName, req.ContentType, req.Size)
	if err != nil {
		s.metrics.upload("rejected")
		return nil, fmt.Errorf("store file: %w", err)
	}

	now := s.now().UTC()
	uploader := actor.UserID
	p := &model.Paper{
		ID:           uuid.New().String(),
		Title:        in.Title,
		Course:       in.Course,
		Semester:     in.Semester,
		AcademicYear: in.AcademicYear,
		Subject:      in.Subject,
		Department:   in.Department,
		FileName:     req.FileName,
		FilePath:     ref.Path,
		FileSize:     ref.Size,
		UploadedBy:   &uploader,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.SubjectCode != "" {
		code := in.SubjectCode
		p.SubjectCode = &code
	}

	stored, err := s.repo.Create(ctx, p)
	if err != nil {
		s.metrics.upload("failed")
		// The request context may already be gone; cleanup must still run.
		if delErr := s.store.Delete(context.WithoutCancel(ctx), ref.Path); delErr != nil {
			s.log.Error().
				Str("event", "upload_cleanup_failed").
				Str("path", ref.Path).
				AnErr("create_error", err).
				Err(delErr).
				Msg("stored file left without a record")
			return nil, fmt.Errorf("save paper: %w; cleanup failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("save paper: %w", err)
	}
	s.metrics.upload("ok")
	s.log.Info().Str("event", "paper_uploaded").Str("paper_id", stored.ID).Int64("size", stored.FileSize).Send()
	return stored, nil
}

func (s *paperService) List(ctx context.Context, params query.Params, page query.PageRequest) (*PaperListResult, error) {
	if page.Page < 1 {
		page.Page = 1
	}
	if page.Size < 1 {
		page.Size = query.DefaultPublicLimit
	}
	f := query.Compose(params)

	var (
		papers []model.Paper
		total  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		papers, err = s.repo.List(gctx, f, page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if papers == nil {
		papers = []model.Paper{}
	}
	return &PaperListResult{Papers: papers, Pagination: query.Paginate(total, page)}, nil
}

func (s *paperService) Get(ctx context.Context, id string) (*model.Paper, error) {
	if id == "" {
		return nil, apperr.Required("id")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *paperService) Download(ctx context.Context, id string) (*Download, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	body, info, err := s.store.Get(ctx, p.FilePath)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.log.Warn().Str("event", "paper_file_missing").Str("paper_id", p.ID).Str("path", p.FilePath).Send()
		}
		return nil, err
	}
	if err := s.repo.IncrementDownload(ctx, p.ID); err != nil {
		body.Close()
		return nil, err
	}
	s.metrics.download()
	p.DownloadCount++

	size := info.Size
	if size <= 0 {
		size = p.FileSize
	}
	return &Download{Paper: p, Body: body, Size: size}, nil
}

func (s *paperService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, p.FilePath); err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("delete file: %w", err)
		}
		s.log.Warn().Str("event", "paper_file_missing").Str("paper_id", p.ID).Str("path", p.FilePath).Msg("deleting record without file")
	}
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return err
	}
	s.log.Info().Str("event", "paper_deleted").Str("paper_id", p.ID).Str("actor", actor.UserID).Send()
	return nil
}

func (s *paperService) Stats(ctx context.Context, actor model.Actor) (*model.Stats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.Stats(ctx, monthStart(s.now()))
}

// monthStart returns midnight UTC on the first day of t's month.
func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
