package postservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/sushihentaime/postboard/internal/common"
)

// UserSummary is the only projection of a user ever surfaced with a post or
// comment. Email and password data never leave the users table through this
// package.
type UserSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CategorySummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PostSummary is the list projection: related users and categories are
// narrowed to id and name, and comments appear only as a count.
type PostSummary struct {
	ID           int             `json:"id"`
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	User         UserSummary     `json:"user"`
	Category     CategorySummary `json:"category"`
	CommentCount int             `json:"comments_count"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PostDetail carries the full comment bodies instead of the count.
type PostDetail struct {
	ID        int             `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	User      UserSummary     `json:"user"`
	Category  CategorySummary `json:"category"`
	Comments  []Comment       `json:"comments"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Comment struct {
	ID        int         `json:"id"`
	Content   string      `json:"content"`
	User      UserSummary `json:"user"`
	PostID    int         `json:"-"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type PostModel struct {
	db *sql.DB
}

type PostService struct {
	m      *PostModel
	c      *common.Cache
	mb     common.MessageProducer
	logger *slog.Logger
}
