package docrepos

import (
	"context"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/agenda"
	"github.com/enactus/membership/core/post"
)

type eventRepository struct {
	store core.DocStore
}

var _ agenda.Repository = (*eventRepository)(nil)

func NewEventRepository(store core.DocStore) agenda.Repository {
	return &eventRepository{store: store}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, evt agenda.Event) (agenda.Event, error) {
	id, err := repo.store.Insert(ctx, core.CollEvents, evt)
	if err != nil {
		return agenda.Event{}, err
	}
	evt.ID = id
	return evt, nil
}

func (repo *eventRepository) GetEvent(ctx context.Context, id string) (agenda.Event, error) {
	var evt agenda.Event
	if err := repo.store.Get(ctx, core.CollEvents, id, &evt); err != nil {
		return agenda.Event{}, err
	}
	return evt, nil
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, id string, fields core.Fields) (agenda.Event, error) {
	if err := repo.store.Update(ctx, core.CollEvents, id, fields); err != nil {
		return agenda.Event{}, err
	}
	return repo.GetEvent(ctx, id)
}

func (repo *eventRepository) DeleteEvent(ctx context.Context, id string) error {
	return repo.store.Delete(ctx, core.CollEvents, id)
}

func (repo *eventRepository) QueryEvents(ctx context.Context) ([]agenda.Event, error) {
	var events []agenda.Event
	if err := repo.store.GetOrdered(ctx, core.CollEvents, core.DBOrdering{Field: "date", Ascending: true}, &events); err != nil {
		return nil, err
	}
	return events, nil
}

type postRepository struct {
	store core.DocStore
}

var _ post.Repository = (*postRepository)(nil)

func NewPostRepository(store core.DocStore) post.Repository {
	return &postRepository{store: store}
}

func (repo *postRepository) CreatePost(ctx context.Context, p post.Post) (post.Post, error) {
	id, err := repo.store.Insert(ctx, core.CollPosts, p)
	if err != nil {
		return post.Post{}, err
	}
	p.ID = id
	return p, nil
}

func (repo *postRepository) GetPost(ctx context.Context, id string) (post.Post, error) {
	var p post.Post
	if err := repo.store.Get(ctx, core.CollPosts, id, &p); err != nil {
		return post.Post{}, err
	}
	return p, nil
}

func (repo *postRepository) UpdatePost(ctx context.Context, id string, fields core.Fields) (post.Post, error) {
	if err := repo.store.Update(ctx, core.CollPosts, id, fields); err != nil {
		return post.Post{}, err
	}
	return repo.GetPost(ctx, id)
}

func (repo *postRepository) DeletePost(ctx context.Context, id string) error {
	return repo.store.Delete(ctx, core.CollPosts, id)
}

func (repo *postRepository) QueryPosts(ctx context.Context) ([]post.Post, error) {
	var posts []post.Post
	if err := repo.store.GetOrdered(ctx, core.CollPosts, core.DBOrdering{Field: "createdAt"}, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (repo *postRepository) CountPosts(ctx context.Context) (int64, error) {
	return repo.store.Count(ctx, core.CollPosts, nil)
}
