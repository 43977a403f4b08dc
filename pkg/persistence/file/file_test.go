package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/covena/covena/pkg/models"
	"github.com/covena/covena/pkg/persistence"
	"github.com/covena/covena/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndGetByID(t *testing.T) {
	ctx := context.Background()
	repo := NewPersistence(t.TempDir()).RequestRepository()

	request := testutil.CreateTestRequest(
		testutil.WithStatus(models.StatusUnderReview),
		testutil.WithReview(models.ReviewInProgress, ""),
	)
	require.NoError(t, repo.Save(ctx, request))

	loaded, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, request, loaded)
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewPersistence(t.TempDir()).RequestRepository()

	request := testutil.CreateTestRequest()
	require.NoError(t, repo.Save(ctx, request))

	request.Status = models.StatusCancelled
	require.NoError(t, repo.Save(ctx, request))

	loaded, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, loaded.Status)
}

func TestGetByIDNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewPersistence(t.TempDir()).RequestRepository()

	_, err := repo.GetByID(ctx, "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsRequestNotFound(err))
}

func TestGetByIDCorruptFile(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	repo := NewPersistence(root).RequestRepository()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "requests"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "requests", "broken.json"), []byte("{"), 0o644))

	_, err := repo.GetByID(ctx, "broken")
	require.Error(t, err)
	assert.False(t, persistence.IsRequestNotFound(err))
}

func TestGetAllEmptyRoot(t *testing.T) {
	ctx := context.Background()
	repo := NewPersistence(t.TempDir()).RequestRepository()

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListByHomeowner(t *testing.T) {
	ctx := context.Background()
	repo := NewPersistence(t.TempDir()).RequestRepository()

	mine := testutil.CreateTestRequest()
	theirs := testutil.CreateTestRequest(func(r *models.Request) { r.HomeownerID = "homeowner-2" })

	require.NoError(t, repo.Save(ctx, mine))
	require.NoError(t, repo.Save(ctx, theirs))

	listed, err := repo.ListByHomeowner(ctx, "homeowner-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, mine.ID, listed[0].ID)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewPersistence(t.TempDir()).RequestRepository()

	request := testutil.CreateTestRequest()
	require.NoError(t, repo.Save(ctx, request))
	require.NoError(t, repo.Delete(ctx, request.ID))

	_, err := repo.GetByID(ctx, request.ID)
	assert.True(t, persistence.IsRequestNotFound(err))

	err = repo.Delete(ctx, request.ID)
	assert.True(t, persistence.IsRequestNotFound(err))
}

func TestFileURLPrefixStripped(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	p := NewPersistence("file://" + root)
	require.NoError(t, p.HealthCheck(ctx))

	request := testutil.CreateTestRequest()
	require.NoError(t, p.RequestRepository().Save(ctx, request))

	_, err := os.Stat(filepath.Join(root, "requests", request.ID+".json"))
	assert.NoError(t, err)
}

func TestHealthCheckMissingRoot(t *testing.T) {
	p := NewPersistence(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, p.HealthCheck(context.Background()))
}
