package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"paperapi/internal/apperr"
	"paperapi/internal/model"
	"paperapi/internal/query"
	"paperapi/internal/repository"
)

const paperColumns = `id, title, course, semester, academic_year, subject, subject_code, department,
		file_name, file_path, file_size, download_count, uploaded_by, created_at, updated_at`

// PaperPostgres is a PostgreSQL implementation of repository.PaperRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type PaperPostgres struct {
	db *sql.DB
}

// NewPaperPostgres creates a new PaperPostgres repository.
func NewPaperPostgres(db *sql.DB) *PaperPostgres {
	return &PaperPostgres{db: db}
}

var _ repository.PaperRepository = (*PaperPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (*model.Paper, error) {
	var (
		p           model.Paper
		subjectCode sql.NullString
		uploadedBy  sql.NullString
	)
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Course,
		&p.Semester,
		&p.AcademicYear,
		&p.Subject,
		&subjectCode,
		&p.Department,
		&p.FileName,
		&p.FilePath,
		&p.FileSize,
		&p.DownloadCount,
		&uploadedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.SubjectCode = fromNull(subjectCode)
	p.UploadedBy = fromNull(uploadedBy)
	return &p, nil
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toNull(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Create inserts a new paper row and returns the stored record.
func (r *PaperPostgres) Create(ctx context.Context, p *model.Paper) (*model.Paper, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	const q = `
		INSERT INTO question_papers (id, title, course, semester, academic_year, subject, subject_code,
			department, file_name, file_path, file_size, download_count, uploaded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $13, $13)
		RETURNING ` + paperColumns
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.Title,
		p.Course,
		p.Semester,
		p.AcademicYear,
		p.Subject,
		toNull(p.SubjectCode),
		p.Department,
		p.FileName,
		p.FilePath,
		p.FileSize,
		toNull(p.UploadedBy),
		p.CreatedAt,
	)
	out, err := scanPaper(row)
	if err != nil {
		return nil, fmt.Errorf("insert paper: %w", err)
	}
	return out, nil
}

// FindByID fetches a single paper by its ID.
func (r *PaperPostgres) FindByID(ctx context.Context, id string) (*model.Paper, error) {
	q := `SELECT ` + paperColumns + ` FROM question_papers WHERE id = $1`
	p, err := scanPaper(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("find paper: %w", err)
	}
	return p, nil
}

// List returns papers matching f using LIMIT/OFFSET pagination.
func (r *PaperPostgres) List(ctx context.Context, f query.Filter, page query.PageRequest) ([]model.Paper, error) {
	where := f.Where(1)
	next := where.NextArg(1)
	q := fmt.Sprintf(`SELECT %s FROM question_papers%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		paperColumns, where.SQL, next, next+1)
	args := append(append([]any{}, where.Args...), page.Size, page.Offset())

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	items := make([]model.Paper, 0)
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	return items, nil
}

// Count returns the number of papers matching f.
func (r *PaperPostgres) Count(ctx context.Context, f query.Filter) (int, error) {
	where := f.Where(1)
	q := `SELECT COUNT(*) FROM question_papers` + where.SQL

	var total int
	if err := r.db.QueryRowContext(ctx, q, where.Args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count papers: %w", err)
	}
	return total, nil
}

// IncrementDownload adds one to download_count in a single UPDATE so concurrent
// downloads never lose an increment.
func (r *PaperPostgres) IncrementDownload(ctx context.Context, id string) error {
	const q = `UPDATE question_papers SET download_count = download_count + 1 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("increment download count: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a paper by ID.
func (r *PaperPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM question_papers WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete paper: %w", err)
	}
	return requireAffected(res)
}

// Stats returns catalog aggregates in one pass over question_papers.
func (r *PaperPostgres) Stats(ctx context.Context, since time.Time) (*model.Stats, error) {
	const q = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COALESCE(SUM(download_count), 0),
			COUNT(DISTINCT course)
		FROM question_papers
	`
	var s model.Stats
	if err := r.db.QueryRowContext(ctx, q, since).Scan(
		&s.TotalPapers,
		&s.ThisMonth,
		&s.TotalDownloads,
		&s.ActiveCourses,
	); err != nil {
		return nil, fmt.Errorf("paper stats: %w", err)
	}
	return &s, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
