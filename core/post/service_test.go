package post_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/member"
	"github.com/enactus/membership/core/post"
	"github.com/enactus/membership/storage/repos"
	"github.com/enactus/membership/tests"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		md       string
		contains []string
		excludes []string
	}{
		{name: "emphasis", md: "**Won** the *national* cup", contains: []string{"<strong>Won</strong>", "<em>national</em>"}},
		{name: "hard wraps", md: "line one\nline two", contains: []string{"line one<br>"}},
		{name: "autolink", md: "see https://enactus.org", contains: []string{`<a href="https://enactus.org">`}},
		{name: "raw html escaped", md: "<script>alert(1)</script>", excludes: []string{"<script>"}},
		{name: "empty", md: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := post.RenderMarkdown(tt.md)
			require.NoError(t, err)
			for _, c := range tt.contains {
				assert.Contains(t, html, c)
			}
			for _, e := range tt.excludes {
				assert.NotContains(t, html, e)
			}
		})
	}
}

func TestNewPost_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	np := post.NewPost{Title: " Regional win ", Description: "We won", Type: post.TypeAchievement, Links: []string{" ", "https://x.com"}}
	require.NoError(t, np.Validate(validate))
	assert.Equal(t, "Regional win", np.Title)
	assert.Equal(t, []string{"https://x.com"}, np.Links)

	for _, bad := range []post.NewPost{
		{Description: "d", Type: post.TypeNews},
		{Title: "t", Type: post.TypeNews},
		{Title: "t", Description: "d", Type: "gossip"},
		{Title: "t", Description: "d", Type: post.TypeNews, Links: []string{"not a url"}},
		{Title: "t", Description: "d", Type: post.TypeEvent, EventDate: "March 3rd"},
	} {
		assert.Error(t, bad.Validate(validate))
	}
}

func TestService(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewStore(t)
	usrRepo := docrepos.NewUserRepository(db)
	svc := post.NewService(docrepos.NewPostRepository(db))
	author := testutil.CreateUser(t, usrRepo, "Amira", "a@x.com", "", member.RoleAdmin, member.StatusApproved)

	p1, err := svc.Create(ctx, author, post.NewPost{Title: "First", Description: "**bold**", Type: post.TypeNews})
	require.NoError(t, err)
	assert.NotEmpty(t, p1.ID)
	assert.Equal(t, "Amira", p1.AuthorName)
	assert.Equal(t, "a@x.com", p1.AuthorEmail)
	assert.Equal(t, []string{}, p1.Links)
	assert.True(t, strings.Contains(p1.DescriptionHTML, "<strong>bold</strong>"))

	time.Sleep(2 * time.Millisecond) // createdAt has millisecond precision
	p2, err := svc.Create(ctx, author, post.NewPost{Title: "Second", Description: "text", Type: post.TypeArticle})
	require.NoError(t, err)

	// newest first
	posts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, p2.ID, posts[0].ID)
	assert.Equal(t, p1.ID, posts[1].ID)
	assert.NotEmpty(t, posts[1].DescriptionHTML)

	updated, err := svc.Update(ctx, p1.ID, post.NewPost{Title: "First!", Description: "_it_", Type: post.TypeNews, Links: []string{"https://x.com"}})
	require.NoError(t, err)
	assert.Equal(t, "First!", updated.Title)
	assert.Contains(t, updated.DescriptionHTML, "<em>it</em>")
	assert.Equal(t, []string{"https://x.com"}, updated.Links)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, svc.Delete(ctx, p1.ID))
	_, err = svc.Get(ctx, p1.ID)
	assert.True(t, core.IsNotFound(err))
	_, err = svc.Update(ctx, p1.ID, post.NewPost{Title: "x", Description: "x", Type: post.TypeNews})
	assert.True(t, core.IsNotFound(err))
}
