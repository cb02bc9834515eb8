package tag

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTagCanonicalizes(t *testing.T) {
	service := NewService(newFakeRepo(), newFakeMedia(), nil)

	tag, err := service.Create(context.Background(), "Nature")
	require.NoError(t, err)
	assert.Equal(t, "nature", tag.Name)
	assert.Equal(t, "nature", tag.Slug)
	assert.Zero(t, tag.MediaCount)

	tags, err := service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "nature", tags[0].Name)
	assert.Equal(t, "nature", tags[0].Slug)
	assert.Zero(t, tags[0].MediaCount)
}

func TestCreateTagCaseInsensitiveConflict(t *testing.T) {
	service := NewService(newFakeRepo(), newFakeMedia(), nil)

	_, err := service.Create(context.Background(), "Sky")
	require.NoError(t, err)

	_, err = service.Create(context.Background(), "sky")
	assert.ErrorIs(t, err, ErrTagExists)
}

func TestCreateTagRequiresName(t *testing.T) {
	service := NewService(newFakeRepo(), newFakeMedia(), nil)

	_, err := service.Create(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestRenameCascadesToMedia(t *testing.T) {
	repo := newFakeRepo()
	media := newFakeMedia()
	service := NewService(repo, media, nil)

	tag, err := service.Create(context.Background(), "old")
	require.NoError(t, err)
	media.items = [][]string{{"a", "old", "b"}, {"old"}, {"c"}}

	renamed, err := service.Update(context.Background(), tag.ID, "New")
	require.NoError(t, err)

	assert.Equal(t, "new", renamed.Name)
	assert.Equal(t, int64(2), renamed.MediaCount)
	assert.Equal(t, []replaceCall{{from: "old", to: "new"}}, media.replaced)
	assert.Equal(t, [][]string{{"a", "new", "b"}, {"new"}, {"c"}}, media.items)
}

func TestRenameToSameNameSkipsCascade(t *testing.T) {
	media := newFakeMedia()
	service := NewService(newFakeRepo(), media, nil)

	tag, err := service.Create(context.Background(), "sky")
	require.NoError(t, err)

	_, err = service.Update(context.Background(), tag.ID, " SKY ")
	require.NoError(t, err)
	assert.Empty(t, media.replaced)
}

func TestRenameErrors(t *testing.T) {
	service := NewService(newFakeRepo(), newFakeMedia(), nil)
	sky, err := service.Create(context.Background(), "sky")
	require.NoError(t, err)
	_, err = service.Create(context.Background(), "sea")
	require.NoError(t, err)

	_, err = service.Update(context.Background(), uuid.New(), "x")
	assert.ErrorIs(t, err, ErrTagNotFound)

	_, err = service.Update(context.Background(), sky.ID, "Sea")
	assert.ErrorIs(t, err, ErrTagExists)

	_, err = service.Update(context.Background(), sky.ID, "")
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestRenameReportsCascadeFailure(t *testing.T) {
	media := newFakeMedia()
	media.err = errors.New("store down")
	repo := newFakeRepo()
	service := NewService(repo, media, nil)

	tag, err := repo.Create(context.Background(), "old")
	require.NoError(t, err)

	_, err = service.Update(context.Background(), tag.ID, "new")
	assert.ErrorIs(t, err, media.err)
}

func TestDeleteCascadesToMedia(t *testing.T) {
	repo := newFakeRepo()
	media := newFakeMedia()
	service := NewService(repo, media, nil)

	tag, err := service.Create(context.Background(), "x")
	require.NoError(t, err)
	media.items = [][]string{{"x", "a"}, {"x"}}

	require.NoError(t, service.Delete(context.Background(), tag.ID))
	assert.Equal(t, []string{"x"}, media.removed)
	assert.Equal(t, [][]string{{"a"}, {}}, media.items)

	tags, err := service.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tags)

	assert.ErrorIs(t, service.Delete(context.Background(), tag.ID), ErrTagNotFound)
}

func TestListCountsLiveUsage(t *testing.T) {
	media := newFakeMedia()
	service := NewService(newFakeRepo(), media, nil)

	for _, name := range []string{"x", "b", "a"} {
		_, err := service.Create(context.Background(), name)
		require.NoError(t, err)
	}
	const n = 5
	for i := 0; i < n; i++ {
		media.items = append(media.items, []string{"x"})
	}
	media.items = append(media.items, []string{"a", "x"})

	tags, err := service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, []string{"a", "b", "x"}, []string{tags[0].Name, tags[1].Name, tags[2].Name})
	assert.Equal(t, int64(1), tags[0].MediaCount)
	assert.Equal(t, int64(0), tags[1].MediaCount)
	assert.Equal(t, int64(n+1), tags[2].MediaCount)
}

func TestRecountStoresCounts(t *testing.T) {
	repo := newFakeRepo()
	media := newFakeMedia()
	service := NewService(repo, media, nil)

	tag, err := service.Create(context.Background(), "x")
	require.NoError(t, err)
	media.items = [][]string{{"x"}, {"x"}}

	_, err = service.Recount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), repo.tags[tag.ID].MediaCount)
}

// --- fakes ----

type fakeRepo struct {
	tags map[uuid.UUID]Tag
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tags: make(map[uuid.UUID]Tag)}
}

func (f *fakeRepo) nameTaken(name string, except uuid.UUID) bool {
	for id, t := range f.tags {
		if id != except && t.Name == CanonicalName(name) {
			return true
		}
	}
	return false
}

func (f *fakeRepo) Create(_ context.Context, name string) (Tag, error) {
	if f.nameTaken(name, uuid.Nil) {
		return Tag{}, ErrTagExists
	}
	name = CanonicalName(name)
	tag := Tag{ID: uuid.New(), Name: name, Slug: Slugify(name), MediaCount: 7}
	f.tags[tag.ID] = tag
	return tag, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, name string) (Tag, error) {
	tag, ok := f.tags[id]
	if !ok {
		return Tag{}, ErrTagNotFound
	}
	if f.nameTaken(name, id) {
		return Tag{}, ErrTagExists
	}
	tag.Name = CanonicalName(name)
	tag.Slug = Slugify(tag.Name)
	f.tags[id] = tag
	return tag, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) (Tag, error) {
	tag, ok := f.tags[id]
	if !ok {
		return Tag{}, ErrTagNotFound
	}
	delete(f.tags, id)
	return tag, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (Tag, error) {
	tag, ok := f.tags[id]
	if !ok {
		return Tag{}, ErrTagNotFound
	}
	return tag, nil
}

func (f *fakeRepo) FindAll(context.Context) ([]Tag, error) {
	list := make([]Tag, 0, len(f.tags))
	for _, t := range f.tags {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (f *fakeRepo) SetMediaCount(_ context.Context, id uuid.UUID, count int64) error {
	tag, ok := f.tags[id]
	if !ok {
		return ErrTagNotFound
	}
	tag.MediaCount = count
	f.tags[id] = tag
	return nil
}

type replaceCall struct {
	from, to string
}

// fakeMedia keeps media tag lists in memory.
type fakeMedia struct {
	items    [][]string
	replaced []replaceCall
	removed  []string
	err      error
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{}
}

func (f *fakeMedia) CountByTags(_ context.Context, names []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(names))
	for _, name := range names {
		for _, tags := range f.items {
			for _, t := range tags {
				if t == name {
					counts[name]++
					break
				}
			}
		}
	}
	return counts, nil
}

func (f *fakeMedia) ReplaceTag(_ context.Context, from, to string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.replaced = append(f.replaced, replaceCall{from: from, to: to})
	var n int64
	for _, tags := range f.items {
		hit := false
		for i, t := range tags {
			if t == from {
				tags[i] = to
				hit = true
			}
		}
		if hit {
			n++
		}
	}
	return n, nil
}

func (f *fakeMedia) RemoveTag(_ context.Context, name string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.removed = append(f.removed, name)
	var n int64
	for i, tags := range f.items {
		kept := make([]string, 0, len(tags))
		for _, t := range tags {
			if t != name {
				kept = append(kept, t)
			}
		}
		if len(kept) != len(tags) {
			n++
		}
		f.items[i] = kept
	}
	return n, nil
}
