package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommentService defines the interface for nested comment business logic.
type CommentService interface {
	Create(ctx context.Context, text string, parentID *uuid.UUID) (*domain.Comment, error)
	Thread(ctx context.Context) ([]*domain.CommentNode, error)
}

type commentService struct {
	repo   repository.CommentRepository
	logger *zap.Logger
}

// NewCommentService creates a new instance of CommentService.
func NewCommentService(repo repository.CommentRepository, logger *zap.Logger) CommentService {
	return &commentService{
		repo:   repo,
		logger: logger,
	}
}

// Create inserts a comment, optionally as a reply to an existing one.
func (s *commentService) Create(ctx context.Context, text string, parentID *uuid.UUID) (*domain.Comment, error) {
	if parentID != nil {
		if _, err := s.repo.FindByID(ctx, *parentID); err != nil {
			return nil, fmt.Errorf("invalid parent: %w", err)
		}
	}

	comment := &domain.Comment{
		ID:        uuid.New(),
		Text:      text,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("Comment created",
		zap.String("comment_id", comment.ID.String()),
	)
	return comment, nil
}

// Thread returns all root comments with their replies resolved hierarchically.
// Uses the same cycle guard as the category hierarchy.
func (s *commentService) Thread(ctx context.Context) ([]*domain.CommentNode, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	replies := make(map[uuid.UUID][]*domain.Comment)
	roots := []*domain.Comment{}
	for _, comment := range all {
		if comment.ParentID == nil {
			roots = append(roots, comment)
			continue
		}
		replies[*comment.ParentID] = append(replies[*comment.ParentID], comment)
	}

	visited := map[uuid.UUID]bool{}
	thread := []*domain.CommentNode{}
	for _, root := range roots {
		node, err := buildCommentNode(root, replies, visited)
		if err != nil {
			return nil, err
		}
		thread = append(thread, node)
	}

	return thread, nil
}

func buildCommentNode(comment *domain.Comment, replies map[uuid.UUID][]*domain.Comment, visited map[uuid.UUID]bool) (*domain.CommentNode, error) {
	if visited[comment.ID] {
		return nil, fmt.Errorf("%w: comment %s revisited", ErrCyclicHierarchy, comment.ID)
	}
	visited[comment.ID] = true

	node := &domain.CommentNode{
		Comment: *comment,
		Replies: []*domain.CommentNode{},
	}

	for _, reply := range replies[comment.ID] {
		replyNode, err := buildCommentNode(reply, replies, visited)
		if err != nil {
			return nil, err
		}
		node.Replies = append(node.Replies, replyNode)
	}

	return node, nil
}
