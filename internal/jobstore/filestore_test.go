package jobstore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchperfect/pitchperfect/internal/models"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return fs
}

func testJob(id string) *models.Job {
	now := time.Now().UTC()
	return &models.Job{
		ID:        id,
		Status:    models.JobPending,
		Target:    "startup",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGet(t *testing.T) {
	fs := newTestStore(t)

	require.NoError(t, fs.Create(testJob("j1")))

	got, err := fs.Get("j1")
	require.NoError(t, err)
	assert.Equal(t, "j1", got.ID)
	assert.Equal(t, models.JobPending, got.Status)
	assert.Equal(t, "startup", got.Target)
}

func TestCreateDuplicateID(t *testing.T) {
	fs := newTestStore(t)

	require.NoError(t, fs.Create(testJob("j1")))
	err := fs.Create(testJob("j1"))
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestGetNotFound(t *testing.T) {
	fs := newTestStore(t)

	_, err := fs.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMutatesAndBumpsUpdatedAt(t *testing.T) {
	fs := newTestStore(t)
	job := testJob("j1")
	job.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, fs.Create(job))

	updated, err := fs.Update("j1", func(j *models.Job) {
		j.Status = models.JobRunning
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobRunning, updated.Status)
	assert.True(t, updated.UpdatedAt.After(job.UpdatedAt))

	// The published snapshot matches what Update returned.
	got, err := fs.Get("j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobRunning, got.Status)
}

func TestUpdateNotFound(t *testing.T) {
	fs := newTestStore(t)

	_, err := fs.Update("missing", func(j *models.Job) {})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateConcurrentWritersSerialize(t *testing.T) {
	fs := newTestStore(t)
	job := testJob("j1")
	job.Error = ""
	require.NoError(t, fs.Create(job))

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fs.Update("j1", func(j *models.Job) {
				j.Context += "x"
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := fs.Get("j1")
	require.NoError(t, err)
	assert.Len(t, got.Context, writers)
}

func TestLockMapPrunedAfterWrites(t *testing.T) {
	fs := newTestStore(t)

	const jobs = 10
	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			assert.NoError(t, fs.Create(testJob(id)))
			for j := 0; j < 5; j++ {
				_, err := fs.Update(id, func(j *models.Job) {
					j.Status = models.JobRunning
				})
				assert.NoError(t, err)
			}
			assert.NoError(t, fs.SaveResult(id, &models.EvaluationReport{Version: models.ReportVersion}))
		}(i)
	}
	wg.Wait()

	fs.mu.Lock()
	defer fs.mu.Unlock()
	assert.Empty(t, fs.locks)
}

func TestSaveResultWriteOnce(t *testing.T) {
	fs := newTestStore(t)
	require.NoError(t, fs.Create(testJob("j1")))

	report := &models.EvaluationReport{Version: models.ReportVersion}
	require.NoError(t, fs.SaveResult("j1", report))

	err := fs.SaveResult("j1", report)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestSaveResultUnknownJob(t *testing.T) {
	fs := newTestStore(t)

	err := fs.SaveResult("missing", &models.EvaluationReport{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetResultRoundTrip(t *testing.T) {
	fs := newTestStore(t)
	require.NoError(t, fs.Create(testJob("j1")))

	report := &models.EvaluationReport{
		Version: models.ReportVersion,
		Summary: models.CombineSummary{OverallScore: 77, Headline: "good"},
	}
	require.NoError(t, fs.SaveResult("j1", report))

	got, err := fs.GetResult("j1")
	require.NoError(t, err)
	assert.Equal(t, 77, got.Summary.OverallScore)
	assert.Equal(t, "good", got.Summary.Headline)
}

func TestGetResultNotFound(t *testing.T) {
	fs := newTestStore(t)
	require.NoError(t, fs.Create(testJob("j1")))

	_, err := fs.GetResult("j1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveUpload(t *testing.T) {
	fs := newTestStore(t)

	path, err := fs.SaveUpload("j1", "pitch.mp3", []byte("audio-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "j1-pitch.mp3", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), data)
}

func TestSaveUploadFlattensPath(t *testing.T) {
	fs := newTestStore(t)

	path, err := fs.SaveUpload("j1", "../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "j1-passwd", filepath.Base(path))
	assert.Contains(t, path, filepath.Join("uploads", "j1-passwd"))
}
