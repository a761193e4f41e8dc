package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"ytcomments/internal/scraper"
)

const createCommentsTable = `CREATE TABLE IF NOT EXISTS comments (
	id          BIGSERIAL PRIMARY KEY,
	video_url   TEXT NOT NULL,
	username    TEXT NOT NULL,
	published   TEXT NOT NULL,
	body        TEXT NOT NULL,
	scraped_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const insertComment = `INSERT INTO comments (video_url, username, published, body) VALUES ($1, $2, $3, $4)`

// Postgres inserts each record as a row of the comments table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens dsn, checks the connection and creates the table.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	p, err := NewPostgresDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgresDB uses an already opened database.
func NewPostgresDB(ctx context.Context, db *sql.DB) (*Postgres, error) {
	if _, err := db.ExecContext(ctx, createCommentsTable); err != nil {
		return nil, fmt.Errorf("failed to create comments table: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Append(ctx context.Context, c scraper.Comment) error {
	_, err := p.db.ExecContext(ctx, insertComment, c.VideoURL, c.Username, c.Timestamp, c.Comment)
	return err
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
