package media

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/krsnavtr-code/gallery/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.CloseSQLite(db) })
	require.NoError(t, MigrateSQLite(db))
	return NewSQLiteRepository(db)
}

func seedAsset(t *testing.T, repo *SQLiteRepository, storedName string, tags ...string) Asset {
	t.Helper()
	asset, err := repo.Create(context.Background(), Asset{
		StoredName:   storedName,
		OriginalName: storedName,
		MimeType:     "image/png",
		SizeBytes:    3,
		Path:         "/uploads/" + storedName,
		Tags:         tags,
	})
	require.NoError(t, err)
	return asset
}

func TestSQLiteRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	first := seedAsset(t, repo, "a.png", "sky")
	second := seedAsset(t, repo, "b.png")

	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, []string{}, second.Tags)

	found, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.png", found.StoredName)
	assert.Equal(t, []string{"sky"}, found.Tags)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrMediaNotFound)
}

func TestSQLiteRepositoryDuplicateStoredName(t *testing.T) {
	repo := newSQLiteRepo(t)
	seedAsset(t, repo, "dup.png")

	_, err := repo.Create(context.Background(), Asset{StoredName: "dup.png", Path: "/uploads/dup.png"})
	assert.ErrorIs(t, err, ErrStoredNameTaken)
}

func TestSQLiteRepositoryUpdateTagsAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)
	asset := seedAsset(t, repo, "a.png", "x")

	updated, err := repo.UpdateTags(ctx, asset.ID, []string{"y", "z"})
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "z"}, updated.Tags)

	deleted, err := repo.Delete(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.png", deleted.StoredName)

	_, err = repo.Delete(ctx, asset.ID)
	assert.ErrorIs(t, err, ErrMediaNotFound)

	_, err = repo.UpdateTags(ctx, asset.ID, []string{"y"})
	assert.ErrorIs(t, err, ErrMediaNotFound)
}

func TestSQLiteRepositoryTagQueries(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)
	seedAsset(t, repo, "a.png", "sky", "sea")
	seedAsset(t, repo, "b.png", "skyline")
	seedAsset(t, repo, "c.png", "sky")

	count, err := repo.CountByTag(ctx, "sky")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	counts, err := repo.CountByTags(ctx, []string{"sky", "sea", "none"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"sky": 2, "sea": 1, "none": 0}, counts)

	byTag, err := repo.FindByTag(ctx, "skyline")
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "b.png", byTag[0].StoredName)

	names, err := repo.StoredNames(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.png", "b.png", "c.png"}, names)
}

func TestSQLiteRepositoryReplaceTagCascades(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)
	a := seedAsset(t, repo, "a.png", "first", "old", "last")
	b := seedAsset(t, repo, "b.png", "old")
	c := seedAsset(t, repo, "c.png", "other")

	n, err := repo.ReplaceTag(ctx, "old", "new")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, _ := repo.FindByID(ctx, a.ID)
	assert.Equal(t, []string{"first", "new", "last"}, got.Tags)
	got, _ = repo.FindByID(ctx, b.ID)
	assert.Equal(t, []string{"new"}, got.Tags)
	got, _ = repo.FindByID(ctx, c.ID)
	assert.Equal(t, []string{"other"}, got.Tags)

	remaining, err := repo.CountByTag(ctx, "old")
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestSQLiteRepositoryRemoveTagCascades(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)
	a := seedAsset(t, repo, "a.png", "x", "keep")
	seedAsset(t, repo, "b.png", "x")

	n, err := repo.RemoveTag(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, _ := repo.FindByID(ctx, a.ID)
	assert.Equal(t, []string{"keep"}, got.Tags)

	count, err := repo.CountByTag(ctx, "x")
	require.NoError(t, err)
	assert.Zero(t, count)
}
