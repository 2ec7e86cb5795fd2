package library

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "library.db"))
}

func TestStoreInsertGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))

	in := CachedVideo{
		VideoID:       "dQw4w9WgXcQ",
		Title:         "Never Gonna Give You Up",
		Author:        "Rick Astley",
		LengthSeconds: 213,
		Transcript:    "never gonna give you up\nnever gonna let you down",
		ViewCount:     "1234567890",
	}
	require.NoError(t, s.Insert(ctx, in))

	got, err := s.Get(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, in.Title, got.Title)
	require.Equal(t, in.Author, got.Author)
	require.Equal(t, in.LengthSeconds, got.LengthSeconds)
	require.Equal(t, in.Transcript, got.Transcript)
	require.NotEmpty(t, got.DateAdded, "date_added is set by the database")
}

func TestStoreGetAbsent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))

	got, err := s.Get(ctx, "nosuchvideo")
	require.NoError(t, err)
	require.Nil(t, got, "absent row is nil, not an error")
}

func TestStoreFirstInsertWins(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, CachedVideo{VideoID: "abc", Title: "first"}))
	require.NoError(t, s.Insert(ctx, CachedVideo{VideoID: "abc", Title: "second"}))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "first", got.Title)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestStoreListMostRecentFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []string{"vid-a", "vid-b", "vid-c"} {
		require.NoError(t, s.Insert(ctx, CachedVideo{VideoID: id, Title: "t-" + id, Transcript: "body"}))
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "vid-c", list[0].VideoID)
	require.Equal(t, "vid-b", list[1].VideoID)
	require.Equal(t, "vid-a", list[2].VideoID)
	// listing omits transcript bodies
	require.Empty(t, list[0].Transcript)
}

func TestStoreDeleteIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, CachedVideo{VideoID: "abc"}))
	require.NoError(t, s.Delete(ctx, "abc"))
	require.NoError(t, s.Delete(ctx, "abc"), "deleting an absent row is not an error")

	exists, err := s.Exists(ctx, "abc")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestStoreReadsBeforeInit(t *testing.T) {
	// reads against a never-initialized database behave as empty
	s := testStore(t)
	ctx := context.Background()

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	require.Nil(t, got)

	exists, err := s.Exists(ctx, "abc")
	require.NoError(t, err)
	require.False(t, exists)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, s.Delete(ctx, "abc"))
}

func TestStoreInitIsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx))
}

func TestStoreSettings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	v, err := s.GetSetting(ctx, "schema_version")
	require.NoError(t, err)
	require.Empty(t, v, "unset key reads as empty")

	require.NoError(t, s.SetSetting(ctx, "schema_version", "2"))
	require.NoError(t, s.SetSetting(ctx, "schema_version", "3"))

	v, err = s.GetSetting(ctx, "schema_version")
	require.NoError(t, err)
	require.Equal(t, "3", v)

	require.NoError(t, s.DeleteSetting(ctx, "schema_version"))
	v, err = s.GetSetting(ctx, "schema_version")
	require.NoError(t, err)
	require.Empty(t, v)
}
