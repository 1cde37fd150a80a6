package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCommentRepo is an in-memory CommentRepository for service tests.
type fakeCommentRepo struct {
	comments map[uuid.UUID]*domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[uuid.UUID]*domain.Comment)}
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	r.comments[comment.ID] = comment
	return nil
}

func (r *fakeCommentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	comment, ok := r.comments[id]
	if !ok {
		return nil, repository.ErrCommentNotFound
	}
	return comment, nil
}

func (r *fakeCommentRepo) List(ctx context.Context) ([]*domain.Comment, error) {
	all := make([]*domain.Comment, 0, len(r.comments))
	for _, comment := range r.comments {
		all = append(all, comment)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all, nil
}

func (r *fakeCommentRepo) add(text string, parentID *uuid.UUID, createdAt time.Time) *domain.Comment {
	comment := &domain.Comment{
		ID:        uuid.New(),
		Text:      text,
		ParentID:  parentID,
		CreatedAt: createdAt,
	}
	r.comments[comment.ID] = comment
	return comment
}

func TestCommentCreateReply(t *testing.T) {
	repo := newFakeCommentRepo()
	svc := NewCommentService(repo, zap.NewNop())

	root, err := svc.Create(context.Background(), "great product", nil)
	require.NoError(t, err)

	reply, err := svc.Create(context.Background(), "agreed", &root.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)
}

func TestCommentCreateRejectsUnknownParent(t *testing.T) {
	repo := newFakeCommentRepo()
	svc := NewCommentService(repo, zap.NewNop())

	missing := uuid.New()
	_, err := svc.Create(context.Background(), "orphan", &missing)
	assert.ErrorIs(t, err, repository.ErrCommentNotFound)
}

func TestCommentThread(t *testing.T) {
	repo := newFakeCommentRepo()
	svc := NewCommentService(repo, zap.NewNop())

	base := time.Now().UTC()
	first := repo.add("first", nil, base)
	second := repo.add("second", nil, base.Add(time.Second))
	reply := repo.add("reply to first", &first.ID, base.Add(2*time.Second))
	repo.add("nested reply", &reply.ID, base.Add(3*time.Second))

	thread, err := svc.Thread(context.Background())
	require.NoError(t, err)
	require.Len(t, thread, 2)

	assert.Equal(t, first.ID, thread[0].ID)
	assert.Equal(t, second.ID, thread[1].ID)

	require.Len(t, thread[0].Replies, 1)
	require.Len(t, thread[0].Replies[0].Replies, 1)
	assert.Equal(t, "nested reply", thread[0].Replies[0].Replies[0].Text)
	assert.Empty(t, thread[1].Replies)
}

func TestCommentThreadEmpty(t *testing.T) {
	repo := newFakeCommentRepo()
	svc := NewCommentService(repo, zap.NewNop())

	thread, err := svc.Thread(context.Background())
	require.NoError(t, err)
	assert.Empty(t, thread)
}
