package repositories

import (
	"context"
	"fmt"

	"cmsgo/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// DB exposes the underlying store for maintenance commands.
func (r *BadgerPostRepository) DB() *badger.DB {
	return r.db
}

// Create creates a new post
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		post.ID = id

		data, err := marshalEntity(post)
		if err != nil {
			return err
		}
		return txn.Set(postKey(post.ID), data)
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var post models.Post

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(postKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return unmarshalEntity(val, &post)
		})
	})

	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List scans the id range covered by window.
func (r *BadgerPostRepository) List(ctx context.Context, window models.IDWindow) ([]*models.Post, error) {
	posts := []*models.Post{}
	if window.Empty() {
		return posts, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(PostKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(postKey(window.Start)); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			id, err := idFromKey(item.Key())
			if err != nil {
				return err
			}
			if !window.Contains(id) {
				break
			}

			var post models.Post
			err = item.Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal post: %w", err)
			}
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Update updates an existing post
func (r *BadgerPostRepository) Update(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		key := postKey(post.ID)

		_, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		data, err := marshalEntity(post)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// Delete deletes a post by ID
func (r *BadgerPostRepository) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		key := postKey(id)

		_, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return txn.Delete(key)
	})
}

func (r *BadgerPostRepository) Close() error {
	return r.db.Close()
}
