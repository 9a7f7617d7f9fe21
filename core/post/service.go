package post

import (
	"bytes"
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/member"
)

var ErrNotFound = core.ErrNotFound

// mdRenderer escapes raw HTML found in descriptions (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Linkify),
	goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
)

type (
	Repository interface {
		CreatePost(ctx context.Context, p Post) (Post, error)
		GetPost(ctx context.Context, id string) (Post, error)
		UpdatePost(ctx context.Context, id string, fields core.Fields) (Post, error)
		DeletePost(ctx context.Context, id string) error
		// QueryPosts returns every post, newest first.
		QueryPosts(ctx context.Context) ([]Post, error)
		CountPosts(ctx context.Context) (int64, error)
	}

	Service struct {
		repo Repository
		now  func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// RenderMarkdown converts a markdown description to HTML.
func RenderMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return "", errors.Wrap(err, "rendering markdown")
	}
	return buf.String(), nil
}

func render(p Post) (Post, error) {
	html, err := RenderMarkdown(p.Description)
	if err != nil {
		return Post{}, err
	}
	p.DescriptionHTML = html
	if p.Links == nil {
		p.Links = []string{}
	}
	return p, nil
}

func renderAll(posts []Post) ([]Post, error) {
	for i := range posts {
		p, err := render(posts[i])
		if err != nil {
			return nil, err
		}
		posts[i] = p
	}
	return posts, nil
}

func (svc *Service) Create(ctx context.Context, author member.User, np NewPost) (Post, error) {
	tstamp := svc.now()
	p, err := svc.repo.CreatePost(ctx, Post{
		Title:       np.Title,
		Description: np.Description,
		Type:        np.Type,
		ImageURL:    np.ImageURL,
		Links:       np.Links,
		EventDate:   np.EventDate,
		AuthorID:    author.ID,
		AuthorName:  author.NameOrEmail(),
		AuthorEmail: author.Email,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		return Post{}, errors.Wrap(err, "creating post")
	}
	return render(p)
}

func (svc *Service) Get(ctx context.Context, id string) (Post, error) {
	p, err := svc.repo.GetPost(ctx, id)
	if err != nil {
		return Post{}, err
	}
	return render(p)
}

func (svc *Service) List(ctx context.Context) ([]Post, error) {
	posts, err := svc.repo.QueryPosts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	return renderAll(posts)
}

func (svc *Service) Update(ctx context.Context, id string, np NewPost) (Post, error) {
	p, err := svc.repo.UpdatePost(ctx, id, core.Fields{
		"title":       np.Title,
		"description": np.Description,
		"type":        np.Type,
		"imageUrl":    np.ImageURL,
		"links":       np.Links,
		"eventDate":   np.EventDate,
		"updatedAt":   svc.now(),
	})
	if err != nil {
		return Post{}, errors.Wrap(err, "updating post")
	}
	return render(p)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.repo.DeletePost(ctx, id), "deleting post")
}

func (svc *Service) Count(ctx context.Context) (int64, error) {
	return svc.repo.CountPosts(ctx)
}
