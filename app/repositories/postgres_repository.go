package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cmsgo/app/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig bounds the postgres connection pool.
type PoolConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	ConnectTimeout time.Duration
	AcquireTimeout time.Duration
	IdleTimeout    time.Duration
	MaxLifetime    time.Duration
}

// DefaultPoolConfig returns the stock bounds: 100/5 connections, 8s timeouts.
func DefaultPoolConfig(dsn string) PoolConfig {
	return PoolConfig{
		DSN:            dsn,
		MaxConns:       100,
		MinConns:       5,
		ConnectTimeout: 8 * time.Second,
		AcquireTimeout: 8 * time.Second,
		IdleTimeout:    8 * time.Second,
		MaxLifetime:    8 * time.Second,
	}
}

// ParsePoolConfig turns cfg into a pgxpool configuration without connecting.
func ParsePoolConfig(cfg PoolConfig) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if pcfg.MinConns > pcfg.MaxConns {
		return nil, fmt.Errorf("pool min conns %d exceeds max conns %d", pcfg.MinConns, pcfg.MaxConns)
	}
	if cfg.ConnectTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.IdleTimeout > 0 {
		pcfg.MaxConnIdleTime = cfg.IdleTimeout
	}
	if cfg.MaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.MaxLifetime
	}
	pcfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	return pcfg, nil
}

// NewPostgresPool connects and pings the pool.
func NewPostgresPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	pcfg, err := ParsePoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

const postsTableSQL = `CREATE TABLE IF NOT EXISTS posts (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	excerpt TEXT NOT NULL,
	content TEXT NOT NULL
)`

// PostgresPostRepository implements PostRepository on a pgx pool. BIGSERIAL
// ids are never reused after a delete.
type PostgresPostRepository struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

// NewPostgresPostRepository ensures the posts table exists.
func NewPostgresPostRepository(ctx context.Context, pool *pgxpool.Pool, acquireTimeout time.Duration) (*PostgresPostRepository, error) {
	if acquireTimeout <= 0 {
		acquireTimeout = 8 * time.Second
	}
	r := &PostgresPostRepository{pool: pool, acquireTimeout: acquireTimeout}

	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, postsTableSQL); err != nil {
		return nil, fmt.Errorf("create posts table: %w", err)
	}
	return r, nil
}

// acquire checks out a connection, failing once the acquire timeout passes.
// The deadline covers checkout only; the query itself runs on ctx.
func (r *PostgresPostRepository) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()
	conn, err := r.pool.Acquire(acquireCtx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}

func (r *PostgresPostRepository) Create(ctx context.Context, post *models.Post) error {
	conn, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	const query = `INSERT INTO posts (title, excerpt, content) VALUES ($1, $2, $3) RETURNING id`
	if err := conn.QueryRow(ctx, query, post.Title, post.Excerpt, post.Content).Scan(&post.ID); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *PostgresPostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	const query = `SELECT id, title, excerpt, content FROM posts WHERE id = $1`
	var post models.Post
	err = conn.QueryRow(ctx, query, id).Scan(&post.ID, &post.Title, &post.Excerpt, &post.Content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

func (r *PostgresPostRepository) List(ctx context.Context, window models.IDWindow) ([]*models.Post, error) {
	posts := []*models.Post{}
	if window.Empty() {
		return posts, nil
	}
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var rows pgx.Rows
	if window.Open {
		rows, err = conn.Query(ctx,
			`SELECT id, title, excerpt, content FROM posts WHERE id >= $1 ORDER BY id ASC`,
			window.Start)
	} else {
		rows, err = conn.Query(ctx,
			`SELECT id, title, excerpt, content FROM posts WHERE id >= $1 AND id < $2 ORDER BY id ASC`,
			window.Start, window.End)
	}
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Excerpt, &post.Content); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return posts, nil
}

func (r *PostgresPostRepository) Update(ctx context.Context, post *models.Post) error {
	conn, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	const query = `UPDATE posts SET title = $2, excerpt = $3, content = $4 WHERE id = $1`
	tag, err := conn.Exec(ctx, query, post.ID, post.Title, post.Excerpt, post.Content)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresPostRepository) Delete(ctx context.Context, id int) error {
	conn, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresPostRepository) Close() error {
	r.pool.Close()
	return nil
}
