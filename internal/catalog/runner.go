package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/snapcut/snapcut-agent/internal/probe"
)

// Runner polls for pending jobs and executes them one at a time. Scan jobs
// walk a source folder; probe jobs extract media metadata.
type Runner struct {
	service      *Service
	repo         Repository
	prober       probe.Prober
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(service *Service, repo Repository, prober probe.Prober, logger *slog.Logger) *Runner {
	return &Runner{
		service:      service,
		repo:         repo,
		prober:       prober,
		logger:       logger,
		pollInterval: 5 * time.Second,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)

	switch job.Type {
	case JobTypeScan:
		source, err := r.repo.GetSource(ctx, job.SourceID)
		if err != nil || source == nil {
			r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "source not found")
			return
		}

		if err := r.service.ExecuteScan(ctx, job.ID, source.ID, source.Path); err != nil {
			r.logger.Error("scan failed", "job_id", job.ID, "error", err)
		}

	case JobTypeProbe:
		r.processProbeJob(ctx, job)

	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "unknown job type")
	}
}

func (r *Runner) processProbeJob(ctx context.Context, job *Job) {
	if r.prober == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "prober not configured")
		return
	}

	file, err := r.repo.GetFile(ctx, job.FileID)
	if err != nil || file == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "file not found")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	meta, err := r.prober.Probe(ctx, file.Path)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("probe failed: %v", err))
		return
	}

	duration := meta.Duration
	if file.Kind == "image" {
		// Still images carry no intrinsic duration.
		duration = DefaultImageDuration
	} else if duration <= 0 {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed,
			fmt.Sprintf("probe reported nonpositive duration %v", duration))
		return
	}

	if err := r.repo.UpdateFileProbe(ctx, file.ID, duration, meta.Width, meta.Height, meta.FrameRate); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("failed to store metadata: %v", err))
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	r.logger.Info("probe job completed",
		"job_id", job.ID, "file_id", file.ID,
		"duration", duration, "width", meta.Width, "height", meta.Height)
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == JobStatusRunning {
			count++
		}
	}
	return count
}
