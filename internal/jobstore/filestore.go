package jobstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pitchperfect/pitchperfect/internal/models"
)

// FileStore persists jobs, results, and uploads as files under a base
// directory:
//
//	<dir>/jobs/<id>.json
//	<dir>/results/<id>.json
//	<dir>/uploads/<id>-<name>
//
// Writes go to a temp file in the destination directory followed by a
// rename, so readers always observe a complete record. A per-id mutex
// serializes writers for one job while unrelated jobs proceed in parallel.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*jobLock
}

// jobLock is a refcounted per-id mutex. The map entry is dropped when the
// last holder releases it, so the lock map never outgrows the set of jobs
// with writes in flight.
type jobLock struct {
	mu   sync.Mutex
	refs int
}

// NewFileStore creates a FileStore rooted at dir, creating the layout if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	for _, sub := range []string{"jobs", "results", "uploads"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	return &FileStore{
		dir:   dir,
		locks: make(map[string]*jobLock),
	}, nil
}

// acquire takes the write lock for one job id, creating it on first use.
func (fs *FileStore) acquire(id string) *jobLock {
	fs.mu.Lock()
	l, ok := fs.locks[id]
	if !ok {
		l = &jobLock{}
		fs.locks[id] = l
	}
	l.refs++
	fs.mu.Unlock()

	l.mu.Lock()
	return l
}

// release unlocks l and prunes the map entry once no holder remains.
func (fs *FileStore) release(id string, l *jobLock) {
	l.mu.Unlock()

	fs.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(fs.locks, id)
	}
	fs.mu.Unlock()
}

func (fs *FileStore) jobPath(id string) string {
	return filepath.Join(fs.dir, "jobs", id+".json")
}

func (fs *FileStore) resultPath(id string) string {
	return filepath.Join(fs.dir, "results", id+".json")
}

// Create persists a new job record, failing with ErrDuplicateID if one
// already exists for the id.
func (fs *FileStore) Create(job *models.Job) error {
	l := fs.acquire(job.ID)
	defer fs.release(job.ID, l)

	path := fs.jobPath(job.ID)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("job %q: %w", job.ID, ErrDuplicateID)
	}
	return writeAtomic(path, job)
}

// Update loads the current job record, applies mutate, bumps UpdatedAt, and
// atomically publishes the new snapshot.
func (fs *FileStore) Update(id string, mutate func(*models.Job)) (*models.Job, error) {
	l := fs.acquire(id)
	defer fs.release(id, l)

	job, err := fs.readJob(id)
	if err != nil {
		return nil, err
	}

	mutate(job)
	job.UpdatedAt = time.Now().UTC()

	if err := writeAtomic(fs.jobPath(id), job); err != nil {
		return nil, err
	}
	return job, nil
}

// Get returns the current snapshot of a job.
func (fs *FileStore) Get(id string) (*models.Job, error) {
	return fs.readJob(id)
}

// SaveResult persists the final report for a job, write-once.
func (fs *FileStore) SaveResult(id string, report *models.EvaluationReport) error {
	l := fs.acquire(id)
	defer fs.release(id, l)

	if _, err := fs.readJob(id); err != nil {
		return err
	}

	path := fs.resultPath(id)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("job %q: %w", id, ErrAlreadyFinalized)
	}
	return writeAtomic(path, report)
}

// GetResult returns the stored report for a job.
func (fs *FileStore) GetResult(id string) (*models.EvaluationReport, error) {
	data, err := os.ReadFile(fs.resultPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("result for job %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("reading result: %w", err)
	}
	var report models.EvaluationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing result: %w", err)
	}
	return &report, nil
}

// SaveUpload persists an uploaded asset blob under uploads/<id>-<name>.
// The original filename is flattened to its base to keep blobs inside the
// uploads directory.
func (fs *FileStore) SaveUpload(id, name string, data []byte) (string, error) {
	safe := filepath.Base(name)
	path := filepath.Join(fs.dir, "uploads", id+"-"+safe)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating upload temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("writing upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("closing upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("publishing upload: %w", err)
	}
	return path, nil
}

func (fs *FileStore) readJob(id string) (*models.Job, error) {
	data, err := os.ReadFile(fs.jobPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("job %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("reading job: %w", err)
	}
	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parsing job: %w", err)
	}
	return &job, nil
}

// writeAtomic marshals v and publishes it at path via temp-file-then-rename.
func writeAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".record-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return fmt.Errorf("writing record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return fmt.Errorf("closing record: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return fmt.Errorf("publishing record: %w", err)
	}
	return nil
}

// Ensure FileStore satisfies Store.
var _ Store = (*FileStore)(nil)
