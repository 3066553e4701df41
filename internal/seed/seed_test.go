package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newsletter/internal/database"
	"newsletter/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "seed.db")))
	require.NoError(t, err)
	return db
}

func TestLoadFixtures(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{
			name: "Valid",
			input: `posts:
  - title: Welcome
    content: First issue
  - title: Draft
    content: Not yet
    published: false
`,
			want: 2,
		},
		{name: "Empty document", input: "", want: 0},
		{name: "Missing content", input: "posts:\n  - title: Only title\n", wantErr: true},
		{name: "Malformed", input: "posts: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadFixtures(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestFixturePost_PublishedDefault(t *testing.T) {
	no := false
	assert.True(t, FixturePost{Title: "a", Content: "b"}.Post().Published)
	assert.False(t, FixturePost{Title: "a", Content: "b", Published: &no}.Post().Published)
}

func TestNewPost(t *testing.T) {
	a := NewPost(gofakeit.New(42))
	b := NewPost(gofakeit.New(42))

	assert.NotEmpty(t, a.Title)
	assert.NotEmpty(t, a.Content)
	assert.Equal(t, a, b, "same seed generates the same post")
}

func TestSeeder_Run(t *testing.T) {
	db := setupDB(t)
	fixtures := filepath.Join(t.TempDir(), "posts.yml")
	require.NoError(t, os.WriteFile(fixtures, []byte(`posts:
  - title: Welcome
    content: First issue
  - title: Draft
    content: Not yet
    published: false
`), 0o600))

	s := NewSeeder(db)
	n, err := s.Run(context.Background(), Options{NumPosts: 3, Fixtures: fixtures, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	var posts []models.Post
	require.NoError(t, db.Order("id").Find(&posts).Error)
	require.Len(t, posts, 5)
	assert.Equal(t, "Welcome", posts[0].Title)
	assert.True(t, posts[0].Published)
	assert.False(t, posts[1].Published)

	// Cleaning replaces the existing rows.
	n, err = s.Run(context.Background(), Options{NumPosts: 1, ShouldClean: true, Seed: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSeeder_Run_MissingFixtures(t *testing.T) {
	s := NewSeeder(setupDB(t))
	_, err := s.Run(context.Background(), Options{Fixtures: filepath.Join(t.TempDir(), "nope.yml")})
	assert.Error(t, err)
}

func TestSeeder_Run_KeepsUnpublished(t *testing.T) {
	db := setupDB(t)
	fixtures := filepath.Join(t.TempDir(), "drafts.yml")
	require.NoError(t, os.WriteFile(fixtures, []byte(`posts:
  - title: Draft one
    content: a
    published: false
  - title: Draft two
    content: b
    published: false
`), 0o600))

	const seed, generated = 7, 20
	faker := gofakeit.New(seed)
	want := []bool{false, false}
	for i := 0; i < generated; i++ {
		want = append(want, NewPost(faker).Published)
	}

	_, err := NewSeeder(db).Run(context.Background(), Options{NumPosts: generated, Fixtures: fixtures, Seed: seed})
	require.NoError(t, err)

	var posts []models.Post
	require.NoError(t, db.Order("id").Find(&posts).Error)
	got := make([]bool, 0, len(posts))
	for _, p := range posts {
		got = append(got, p.Published)
	}
	assert.Equal(t, want, got)
}
