package repository

import (
	"container/list"
	"context"
	"sync"

	"go-tamper-inspector/pkg/models"
)

// MemoryReportRepository keeps the most recent reports in memory. When full,
// saving a new report evicts the oldest one.
type MemoryReportRepository struct {
	mu       sync.RWMutex
	capacity int
	order    *list.List // front is newest
	byID     map[string]*list.Element
}

// NewMemoryReportRepository creates a repository holding at most capacity reports
func NewMemoryReportRepository(capacity int) *MemoryReportRepository {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryReportRepository{
		capacity: capacity,
		order:    list.New(),
		byID:     make(map[string]*list.Element, capacity),
	}
}

// Save stores report, replacing and refreshing any report with the same ID
func (r *MemoryReportRepository) Save(ctx context.Context, report *models.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.byID[report.ID]; ok {
		el.Value = report
		r.order.MoveToFront(el)
		return nil
	}

	r.byID[report.ID] = r.order.PushFront(report)
	for r.order.Len() > r.capacity {
		oldest := r.order.Back()
		r.order.Remove(oldest)
		delete(r.byID, oldest.Value.(*models.Report).ID)
	}
	return nil
}

// Get retrieves a report by ID
func (r *MemoryReportRepository) Get(ctx context.Context, id string) (*models.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	el, ok := r.byID[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	return el.Value.(*models.Report), nil
}

// List returns stored reports, newest first
func (r *MemoryReportRepository) List(ctx context.Context) ([]*models.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	reports := make([]*models.Report, 0, r.order.Len())
	for el := r.order.Front(); el != nil; el = el.Next() {
		reports = append(reports, el.Value.(*models.Report))
	}
	return reports, nil
}

// Len returns the number of stored reports
func (r *MemoryReportRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.order.Len()
}
