package repositories

import (
	"context"

	"cmsgo/app/models"
)

// PostRepository defines the interface for post data access. Implementations
// report missing rows with ErrNotFound and never retry failed store calls.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int) (*models.Post, error)
	// List returns posts whose id falls in window, ordered by id ascending.
	List(ctx context.Context, window models.IDWindow) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id int) error
	Close() error
}
