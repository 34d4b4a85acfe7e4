package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"paperapi/internal/apperr"
	"paperapi/internal/model"
	"paperapi/internal/query"
	"paperapi/internal/repository"
)

// memoryPapers is an in-memory PaperRepository used for listing properties.
type memoryPapers struct {
	mu     sync.Mutex
	papers map[string]model.Paper
}

var _ repository.PaperRepository = (*memoryPapers)(nil)

func newMemoryPapers() *memoryPapers {
	return &memoryPapers{papers: map[string]model.Paper{}}
}

func (m *memoryPapers) Create(_ context.Context, p *model.Paper) (*model.Paper, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	cp.DownloadCount = 0
	m.papers[cp.ID] = cp
	return &cp, nil
}

func (m *memoryPapers) FindByID(_ context.Context, id string) (*model.Paper, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.papers[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &p, nil
}

func (m *memoryPapers) matching(f query.Filter) []model.Paper {
	out := []model.Paper{}
	for _, p := range m.papers {
		if f.Matches(p.Course, p.Semester, p.AcademicYear, p.Subject) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memoryPapers) List(_ context.Context, f query.Filter, page query.PageRequest) ([]model.Paper, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(f)
	start := page.Offset()
	if start >= len(all) {
		return []model.Paper{}, nil
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (m *memoryPapers) Count(_ context.Context, f query.Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(f)), nil
}

func (m *memoryPapers) IncrementDownload(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.papers[id]
	if !ok {
		return apperr.ErrNotFound
	}
	p.DownloadCount++
	m.papers[id] = p
	return nil
}

func (m *memoryPapers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.papers[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.papers, id)
	return nil
}

func (m *memoryPapers) Stats(_ context.Context, since time.Time) (*model.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &model.Stats{}
	courses := map[string]struct{}{}
	for _, p := range m.papers {
		st.TotalPapers++
		if !p.CreatedAt.Before(since) {
			st.ThisMonth++
		}
		st.TotalDownloads += p.DownloadCount
		courses[p.Course] = struct{}{}
	}
	st.ActiveCourses = len(courses)
	return st, nil
}
