package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const fingerprintSize = 64 * 1024

// DefaultImageDuration is how long a still image occupies on the timeline
// when no explicit duration is set.
const DefaultImageDuration = 4.0

type CatalogService interface {
	AddFolder(ctx context.Context, path, displayName string) (*Source, error)
	RemoveSource(ctx context.Context, id string) error
	GetSources(ctx context.Context) ([]*Source, error)
	GetSource(ctx context.Context, id string) (*Source, error)
	GetFiles(ctx context.Context, sourceID string) ([]*MediaFile, error)
	GetAllFiles(ctx context.Context) ([]*MediaFile, error)
	GetFile(ctx context.Context, id string) (*MediaFile, error)
	CountFiles(ctx context.Context) (int, error)
	TotalFileSize(ctx context.Context) (int64, error)
	ScanSource(ctx context.Context, sourceID string) (*Job, error)
	ExecuteScan(ctx context.Context, jobID, sourceID, path string) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) AddFolder(ctx context.Context, path, displayName string) (*Source, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory")
	}

	existing, err := s.repo.GetSourceByPath(ctx, absPath)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if displayName == "" {
		displayName = filepath.Base(absPath)
	}

	source := &Source{
		ID:          NewID(),
		Type:        "folder",
		Path:        absPath,
		DisplayName: displayName,
		Present:     true,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.CreateSource(ctx, source); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("folder added", "source_id", source.ID, "path", absPath)
	}
	return source, nil
}

func (s *Service) RemoveSource(ctx context.Context, id string) error {
	if err := s.repo.DeleteFilesBySource(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteSource(ctx, id)
}

func (s *Service) GetSources(ctx context.Context) ([]*Source, error) {
	return s.repo.ListSources(ctx)
}

func (s *Service) GetSource(ctx context.Context, id string) (*Source, error) {
	return s.repo.GetSource(ctx, id)
}

func (s *Service) GetFiles(ctx context.Context, sourceID string) ([]*MediaFile, error) {
	return s.repo.GetFilesBySource(ctx, sourceID)
}

func (s *Service) GetAllFiles(ctx context.Context) ([]*MediaFile, error) {
	return s.repo.ListFiles(ctx)
}

func (s *Service) GetFile(ctx context.Context, id string) (*MediaFile, error) {
	return s.repo.GetFile(ctx, id)
}

func (s *Service) CountFiles(ctx context.Context) (int, error) {
	return s.repo.CountFiles(ctx)
}

func (s *Service) TotalFileSize(ctx context.Context) (int64, error) {
	return s.repo.TotalFileSize(ctx)
}

func (s *Service) ScanSource(ctx context.Context, sourceID string) (*Job, error) {
	source, err := s.repo.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("source not found")
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      JobTypeScan,
		Status:    JobStatusPending,
		SourceID:  sourceID,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("scan job created", "job_id", job.ID, "source_id", sourceID)
	}
	return job, nil
}

func (s *Service) ExecuteScan(ctx context.Context, jobID, sourceID, path string) error {
	s.repo.UpdateJobStatus(ctx, jobID, JobStatusRunning, "")
	if s.logger != nil {
		s.logger.Info("starting scan", "job_id", jobID, "path", path)
	}

	var files []string
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !d.IsDir() && KindForFile(d.Name()) != "" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, err.Error())
		return err
	}

	total := len(files)
	if s.logger != nil {
		s.logger.Info("found media files", "count", total)
	}

	for i, filePath := range files {
		select {
		case <-ctx.Done():
			s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, "cancelled")
			return ctx.Err()
		default:
		}

		if err := s.processFile(ctx, sourceID, filePath); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to process file", "path", filePath, "error", err)
			}
		}

		progress := 0
		if total > 0 {
			progress = (i + 1) * 100 / total
		}
		s.repo.UpdateJobProgress(ctx, jobID, progress)
	}

	s.repo.UpdateJobStatus(ctx, jobID, JobStatusCompleted, "")
	if s.logger != nil {
		s.logger.Info("scan completed", "job_id", jobID, "files_processed", total)
	}

	s.createProbeJobs(ctx, sourceID)
	return nil
}

// createProbeJobs enqueues a metadata probe for every scanned file that has
// not been probed yet and has no probe job in flight.
func (s *Service) createProbeJobs(ctx context.Context, sourceID string) {
	files, err := s.repo.GetFilesBySource(ctx, sourceID)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to list files for probe job creation", "source_id", sourceID, "error", err)
		}
		return
	}

	existingJobs, err := s.repo.ListJobs(ctx, 10000)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to list existing jobs", "error", err)
		}
		return
	}

	queued := make(map[string]bool)
	for _, j := range existingJobs {
		if j.Type == JobTypeProbe && j.FileID != "" &&
			(j.Status == JobStatusPending || j.Status == JobStatusRunning) {
			queued[j.FileID] = true
		}
	}

	created := 0
	for _, f := range files {
		if f.Probed || queued[f.ID] {
			continue
		}
		now := time.Now()
		job := &Job{
			ID:        NewID(),
			Type:      JobTypeProbe,
			Status:    JobStatusPending,
			SourceID:  sourceID,
			FileID:    f.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.CreateJob(ctx, job); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to create probe job", "file_id", f.ID, "error", err)
			}
			continue
		}
		created++
	}

	if s.logger != nil {
		s.logger.Info("created probe jobs", "source_id", sourceID, "count", created)
	}
}

func (s *Service) processFile(ctx context.Context, sourceID, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	fingerprint, err := computeFingerprint(path)
	if err != nil {
		return err
	}

	file := &MediaFile{
		ID:          NewID(),
		SourceID:    sourceID,
		Path:        path,
		Filename:    filepath.Base(path),
		Kind:        KindForFile(path),
		Size:        info.Size(),
		Mtime:       info.ModTime(),
		Fingerprint: fingerprint,
		CreatedAt:   time.Now(),
	}

	return s.repo.UpsertFile(ctx, file)
}

func computeFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	lr := io.LimitReader(f, fingerprintSize)
	if _, err := io.Copy(h, lr); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

var _ CatalogService = (*Service)(nil)
