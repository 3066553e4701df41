// Package seed fills the development posts API with generated and fixture posts.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"newsletter/internal/models"
	"newsletter/internal/observability"
	"newsletter/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumPosts    int
	Fixtures    string
	ShouldClean bool
	// Seed makes generated content reproducible. Zero uses the clock.
	Seed int64
}

// FixturePost is one entry of a fixtures file. Published defaults to true.
type FixturePost struct {
	Title     string `yaml:"title"`
	Content   string `yaml:"content"`
	Published *bool  `yaml:"published"`
}

type fixtureFile struct {
	Posts []FixturePost `yaml:"posts"`
}

// Post converts the fixture to a storable post.
func (f FixturePost) Post() models.Post {
	published := true
	if f.Published != nil {
		published = *f.Published
	}
	return models.Post{Title: f.Title, Content: f.Content, Published: published}
}

// LoadFixtures parses a YAML document of the form:
//
//	posts:
//	  - title: Welcome
//	    content: First issue
//	    published: true
func LoadFixtures(r io.Reader) ([]FixturePost, error) {
	var doc fixtureFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	for i, p := range doc.Posts {
		if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Content) == "" {
			return nil, fmt.Errorf("fixture %d: title and content are required", i)
		}
	}
	return doc.Posts, nil
}

// NewPost builds a post with generated content. Roughly one in five is unpublished.
func NewPost(f *gofakeit.Faker) models.Post {
	return models.Post{
		Title:     strings.TrimSuffix(f.Sentence(5), "."),
		Content:   f.Paragraph(1, 3, 8, "\n"),
		Published: f.Number(1, 5) != 1,
	}
}

// Seeder writes posts through a repository.
type Seeder struct {
	db   *gorm.DB
	repo repository.PostRepository
}

// NewSeeder creates a Seeder over db.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, repo: repository.NewPostRepository(db)}
}

// Run cleans, loads fixtures and generates posts as opts asks. It returns the number of posts created.
func (s *Seeder) Run(ctx context.Context, opts Options) (int, error) {
	if opts.ShouldClean {
		if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Post{}).Error; err != nil {
			return 0, fmt.Errorf("clean posts: %w", err)
		}
		observability.Logger.InfoContext(ctx, "posts table cleaned")
	}

	var posts []models.Post

	if opts.Fixtures != "" {
		fh, err := os.Open(opts.Fixtures)
		if err != nil {
			return 0, fmt.Errorf("open fixtures: %w", err)
		}
		fixtures, err := LoadFixtures(fh)
		_ = fh.Close()
		if err != nil {
			return 0, err
		}
		for _, f := range fixtures {
			posts = append(posts, f.Post())
		}
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(seed)
	for i := 0; i < opts.NumPosts; i++ {
		posts = append(posts, NewPost(faker))
	}

	for i := range posts {
		p := posts[i]
		// GORM omits a false Published from the insert and reads the column
		// default back into p, so the wanted value is taken first.
		published := p.Published
		if err := s.repo.Create(ctx, &p); err != nil {
			return i, fmt.Errorf("create post %d: %w", i, err)
		}
		if !published {
			if err := s.db.WithContext(ctx).Model(&p).Update("published", false).Error; err != nil {
				return i, fmt.Errorf("unpublish post %d: %w", p.ID, err)
			}
		}
	}

	observability.Logger.InfoContext(ctx, "seed complete", slog.Int("posts", len(posts)))
	return len(posts), nil
}
