package mock

import (
	"context"
	"sort"
	"sync"

	"cmsgo/app/models"
	"cmsgo/app/repositories"
)

// PostRepository is an in-memory repositories.PostRepository that counts
// calls and can be told to fail.
type PostRepository struct {
	posts  map[int]*models.Post
	nextID int
	calls  int
	err    error
	mutex  sync.RWMutex
}

var _ repositories.PostRepository = (*PostRepository)(nil)

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[int]*models.Post),
		nextID: 1,
	}
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = make(map[int]*models.Post)
	m.nextID = 1
	m.calls = 0
	m.err = nil
}

// Calls returns how many store operations ran.
func (m *PostRepository) Calls() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.calls
}

// FailWith makes every following operation return err. nil restores normal behavior.
func (m *PostRepository) FailWith(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.err = err
}

func (m *PostRepository) Create(ctx context.Context, post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.calls++
	if m.err != nil {
		return m.err
	}
	post.ID = m.nextID
	m.nextID++
	stored := *post
	m.posts[post.ID] = &stored
	return nil
}

func (m *PostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	out := *post
	return &out, nil
}

func (m *PostRepository) Update(ctx context.Context, post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.calls++
	if m.err != nil {
		return m.err
	}
	if _, exists := m.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	stored := *post
	m.posts[post.ID] = &stored
	return nil
}

func (m *PostRepository) Delete(ctx context.Context, id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.calls++
	if m.err != nil {
		return m.err
	}
	if _, exists := m.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *PostRepository) List(ctx context.Context, window models.IDWindow) ([]*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]int, 0, len(m.posts))
	for id := range m.posts {
		if window.Contains(id) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	posts := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		out := *m.posts[id]
		posts = append(posts, &out)
	}
	return posts, nil
}

func (m *PostRepository) Close() error {
	return nil
}
