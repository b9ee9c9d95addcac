package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type jobRepo struct {
	db *gorm.DB
}

var terminalStatuses = []string{JobCompleted, JobFailed}

func (r *jobRepo) Create(ctx context.Context, job *Job) error {
	if job.Status == "" {
		job.Status = JobPending
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (r *jobRepo) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

func (r *jobRepo) LatestOfKind(ctx context.Context, kind string) (*Job, error) {
	var jobs []Job
	err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("latest %s job: %w", kind, err)
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return &jobs[0], nil
}

// ClaimNext picks the oldest pending job and flips it to running with a
// conditional update. Losing the race to another worker just moves on to
// the next candidate.
func (r *jobRepo) ClaimNext(ctx context.Context) (*Job, error) {
	for range 3 {
		var ids []string
		err := r.db.WithContext(ctx).Model(&Job{}).
			Where("status = ?", JobPending).
			Order("created_at ASC, id ASC").
			Limit(1).
			Pluck("id", &ids).Error
		if err != nil {
			return nil, fmt.Errorf("find pending job: %w", err)
		}
		if len(ids) == 0 {
			return nil, nil
		}

		ok, err := r.MarkRunning(ctx, ids[0])
		if err != nil {
			return nil, err
		}
		if ok {
			return r.Get(ctx, ids[0])
		}
	}
	return nil, nil
}

func (r *jobRepo) MarkRunning(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobPending).
		Updates(map[string]any{
			"status":     JobRunning,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark job running: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *jobRepo) SetProgress(ctx context.Context, id string, progress int, message string) (bool, error) {
	updates := map[string]any{
		"progress":   progress,
		"updated_at": time.Now(),
	}
	if message != "" {
		updates["message"] = message
	}
	res := r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status NOT IN ? AND progress <= ?", id, terminalStatuses, progress).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("set job progress: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *jobRepo) Finish(ctx context.Context, id, status string, result datatypes.JSON, errText, message string) (bool, error) {
	if status != JobCompleted && status != JobFailed {
		return false, fmt.Errorf("finish job: %q is not a terminal status", status)
	}
	updates := map[string]any{
		"status":     status,
		"progress":   100,
		"error":      errText,
		"updated_at": time.Now(),
	}
	if result != nil {
		updates["result"] = result
	}
	if message != "" {
		updates["message"] = message
	}
	res := r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("finish job: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
