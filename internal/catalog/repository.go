package catalog

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateSource(ctx context.Context, source *Source) error
	GetSource(ctx context.Context, id string) (*Source, error)
	GetSourceByPath(ctx context.Context, path string) (*Source, error)
	ListSources(ctx context.Context) ([]*Source, error)
	DeleteSource(ctx context.Context, id string) error
	UpdateSourcePresent(ctx context.Context, id string, present bool) error

	GetFile(ctx context.Context, id string) (*MediaFile, error)
	ListFiles(ctx context.Context) ([]*MediaFile, error)
	GetFilesBySource(ctx context.Context, sourceID string) ([]*MediaFile, error)
	DeleteFilesBySource(ctx context.Context, sourceID string) error
	UpsertFile(ctx context.Context, file *MediaFile) error
	UpdateFileProbe(ctx context.Context, id string, duration float64, width, height int, frameRate float64) error
	CountFiles(ctx context.Context) (int, error)
	TotalFileSize(ctx context.Context) (int64, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateSource(ctx context.Context, s *Source) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sources (id, type, path, display_name, present, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.Type, s.Path, s.DisplayName, boolToInt(s.Present), s.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetSource(ctx context.Context, id string) (*Source, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, path, display_name, present, created_at
		FROM sources WHERE id = ?
	`, id)
	return scanSource(row)
}

func (r *SQLiteRepository) GetSourceByPath(ctx context.Context, path string) (*Source, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, path, display_name, present, created_at
		FROM sources WHERE path = ?
	`, path)
	return scanSource(row)
}

func scanSource(row *sql.Row) (*Source, error) {
	var s Source
	var present int
	var createdAt string

	err := row.Scan(&s.ID, &s.Type, &s.Path, &s.DisplayName, &present, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.Present = present == 1
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &s, nil
}

func (r *SQLiteRepository) ListSources(ctx context.Context) ([]*Source, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, path, display_name, present, created_at
		FROM sources ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		var s Source
		var present int
		var createdAt string
		if err := rows.Scan(&s.ID, &s.Type, &s.Path, &s.DisplayName, &present, &createdAt); err != nil {
			return nil, err
		}
		s.Present = present == 1
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sources = append(sources, &s)
	}
	return sources, rows.Err()
}

func (r *SQLiteRepository) DeleteSource(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepository) UpdateSourcePresent(ctx context.Context, id string, present bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sources SET present = ? WHERE id = ?`, boolToInt(present), id)
	return err
}

const fileColumns = `id, source_id, path, filename, kind, size, mtime, fingerprint,
	duration, width, height, frame_rate, probed, created_at`

func (r *SQLiteRepository) GetFile(ctx context.Context, id string) (*MediaFile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM media_files WHERE id = ?`, id)
	return scanFileRow(row.Scan)
}

func (r *SQLiteRepository) ListFiles(ctx context.Context) ([]*MediaFile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM media_files ORDER BY mtime ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFileRows(rows)
}

func (r *SQLiteRepository) GetFilesBySource(ctx context.Context, sourceID string) ([]*MediaFile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+fileColumns+` FROM media_files WHERE source_id = ? ORDER BY mtime ASC
	`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFileRows(rows)
}

func scanFileRows(rows *sql.Rows) ([]*MediaFile, error) {
	var files []*MediaFile
	for rows.Next() {
		f, err := scanFileRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func scanFileRow(scan func(...any) error) (*MediaFile, error) {
	var f MediaFile
	var mtime, createdAt string
	var probed int
	var frameRate sql.NullFloat64

	err := scan(&f.ID, &f.SourceID, &f.Path, &f.Filename, &f.Kind, &f.Size, &mtime,
		&f.Fingerprint, &f.Duration, &f.Width, &f.Height, &frameRate, &probed, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f.Mtime, _ = time.Parse(time.RFC3339, mtime)
	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	f.FrameRate = frameRate.Float64
	f.Probed = probed == 1
	return &f, nil
}

func (r *SQLiteRepository) DeleteFilesBySource(ctx context.Context, sourceID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM media_files WHERE source_id = ?`, sourceID)
	return err
}

func (r *SQLiteRepository) UpsertFile(ctx context.Context, f *MediaFile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media_files (`+fileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, path) DO UPDATE SET
			filename = excluded.filename,
			kind = excluded.kind,
			size = excluded.size,
			mtime = excluded.mtime,
			fingerprint = excluded.fingerprint
	`, f.ID, f.SourceID, f.Path, f.Filename, f.Kind, f.Size, f.Mtime.Format(time.RFC3339),
		f.Fingerprint, f.Duration, f.Width, f.Height, nullFloat(f.FrameRate), boolToInt(f.Probed),
		f.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) UpdateFileProbe(ctx context.Context, id string, duration float64, width, height int, frameRate float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE media_files SET duration = ?, width = ?, height = ?, frame_rate = ?, probed = 1
		WHERE id = ?
	`, duration, width, height, nullFloat(frameRate), id)
	return err
}

func (r *SQLiteRepository) CountFiles(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media_files`).Scan(&count)
	return count, err
}

func (r *SQLiteRepository) TotalFileSize(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT SUM(size) FROM media_files`).Scan(&total)
	return total.Int64, err
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, status, source_id, file_id, progress, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, nullString(j.SourceID), nullString(j.FileID), j.Progress,
		nullString(j.Error), j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

const jobColumns = `id, type, status, source_id, file_id, progress, error, created_at, updated_at`

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJobRow(row.Scan)
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobRows(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobRows(rows)
}

func scanJobRows(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		j, err := scanJobRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanJobRow(scan func(...any) error) (*Job, error) {
	var j Job
	var sourceID, fileID, errorMsg sql.NullString
	var createdAt, updatedAt string

	err := scan(&j.ID, &j.Type, &j.Status, &sourceID, &fileID, &j.Progress, &errorMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.SourceID = sourceID.String
	j.FileID = fileID.String
	j.Error = errorMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(errorMsg), time.Now().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?
	`, progress, time.Now().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

var _ Repository = (*SQLiteRepository)(nil)
