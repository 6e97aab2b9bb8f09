package services

import (
	"context"
	"errors"
	"fmt"

	"cmsgo/app/apperrors"
	"cmsgo/app/models"
	"cmsgo/app/repositories"

	"pkt.systems/pslog"
)

const postNotFoundMsg = "could not find post id in database"

// PostService is the public contract over stored posts. Every method returns
// a value or exactly one *apperrors.AppError.
type PostService struct {
	postRepo repositories.PostRepository
	logger   pslog.Logger
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository, logger pslog.Logger) *PostService {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return &PostService{
		postRepo: postRepo,
		logger:   logger.With("sys", "service.posts"),
	}
}

// CreatePost stores a new post and returns its id. Nothing is written when a
// field is empty.
func (s *PostService) CreatePost(ctx context.Context, title, excerpt, content string) (int, error) {
	post := &models.Post{Title: title, Excerpt: excerpt, Content: content}
	if err := post.Validate(); err != nil {
		return 0, apperrors.NewValidation(err.Error())
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.logger.Warn("post.create.failed", "error", err)
		return 0, apperrors.NewInternal(fmt.Sprintf("could not store post in db: %v", err), err)
	}
	s.logger.Debug("post.created", "post_id", post.ID)
	return post.ID, nil
}

// GetPost retrieves a post by ID
func (s *PostService) GetPost(ctx context.Context, id int) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError("post.get.failed", id, err)
	}
	return post, nil
}

// ListPosts returns the posts whose id falls in the page's id window. A
// negative offset or limit is rejected before the store is touched.
func (s *PostService) ListPosts(ctx context.Context, page models.Pagination) ([]*models.Post, error) {
	if err := page.Validate(); err != nil {
		return nil, apperrors.NewValidation(err.Error())
	}

	posts, err := s.postRepo.List(ctx, page.Window())
	if err != nil {
		s.logger.Warn("post.list.failed", "offset", page.Offset, "limit", page.Limit, "error", err)
		return nil, apperrors.NewInternal("", err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

// UpdatePost replaces the text of an existing post.
func (s *PostService) UpdatePost(ctx context.Context, post *models.Post) error {
	if err := post.Validate(); err != nil {
		return apperrors.NewValidation(err.Error())
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return s.storeError("post.update.failed", post.ID, err)
	}
	return nil
}

// DeletePost removes a post and echoes its id.
func (s *PostService) DeletePost(ctx context.Context, id int) (int, error) {
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return 0, s.storeError("post.delete.failed", id, err)
	}
	s.logger.Debug("post.deleted", "post_id", id)
	return id, nil
}

func (s *PostService) storeError(event string, id int, err error) *apperrors.AppError {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NewNotFound(postNotFoundMsg)
	}
	s.logger.Warn(event, "post_id", id, "error", err)
	return apperrors.NewInternal("", err)
}
