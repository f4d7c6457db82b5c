package postservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrUserForeignKey     = errors.New("user_id does not exist")
	ErrCategoryForeignKey = errors.New("category_id does not exist")
	ErrPostForeignKey     = errors.New("post_id does not exist")
)

func newPostModel(db *sql.DB) *PostModel {
	return &PostModel{db: db}
}

// ForeignKeyError is a helper function to check if the error is a foreign key constraint error.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func (m *PostModel) insertPost(ctx context.Context, title, content string, userID, categoryID int) (int, error) {
	query := `
		INSERT INTO posts (title, content, user_id, category_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int
	err := m.db.QueryRowContext(ctx, query, title, content, userID, categoryID).Scan(&id)
	if err != nil {
		switch {
		case ForeignKeyError(err, "posts_user_id_fkey"):
			return 0, ErrUserForeignKey
		case ForeignKeyError(err, "posts_category_id_fkey"):
			return 0, ErrCategoryForeignKey
		default:
			return 0, err
		}
	}

	return id, nil
}

// getPostSummary is a method to get a single post with the owner and category
// narrowed to id and name and the comment count computed in the database.
func (m *PostModel) getPostSummary(ctx context.Context, id int) (*PostSummary, error) {
	query := `
		SELECT p.id, p.title, p.content, p.created_at, p.updated_at,
			u.id, u.name, c.id, c.name,
			(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id)
		FROM posts p
		JOIN users u ON p.user_id = u.id
		JOIN categories c ON p.category_id = c.id
		WHERE p.id = $1`

	row := m.db.QueryRowContext(ctx, query, id)

	var post PostSummary
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.CreatedAt, &post.UpdatedAt, &post.User.ID, &post.User.Name, &post.Category.ID, &post.Category.Name, &post.CommentCount)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &post, nil
}

// getPosts returns every post in creation order. The id column is serial, so
// ordering by it keeps list responses deterministic.
func (m *PostModel) getPosts(ctx context.Context) ([]PostSummary, error) {
	query := `
		SELECT p.id, p.title, p.content, p.created_at, p.updated_at,
			u.id, u.name, c.id, c.name,
			(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id)
		FROM posts p
		JOIN users u ON p.user_id = u.id
		JOIN categories c ON p.category_id = c.id
		ORDER BY p.id`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []PostSummary{}
	for rows.Next() {
		var post PostSummary
		err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.CreatedAt, &post.UpdatedAt, &post.User.ID, &post.User.Name, &post.Category.ID, &post.Category.Name, &post.CommentCount)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (m *PostModel) getPostsByCategory(ctx context.Context, categoryID int) ([]PostSummary, error) {
	query := `
		SELECT p.id, p.title, p.content, p.created_at, p.updated_at,
			u.id, u.name, c.id, c.name,
			(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id)
		FROM posts p
		JOIN users u ON p.user_id = u.id
		JOIN categories c ON p.category_id = c.id
		WHERE p.category_id = $1
		ORDER BY p.id`

	rows, err := m.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []PostSummary{}
	for rows.Next() {
		var post PostSummary
		err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.CreatedAt, &post.UpdatedAt, &post.User.ID, &post.User.Name, &post.Category.ID, &post.Category.Name, &post.CommentCount)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

// getPostDetail assembles the detail projection: the summary fields plus the
// full comment list with each comment's author.
func (m *PostModel) getPostDetail(ctx context.Context, id int) (*PostDetail, error) {
	summary, err := m.getPostSummary(ctx, id)
	if err != nil {
		return nil, err
	}

	comments, err := m.getCommentsByPost(ctx, id)
	if err != nil {
		return nil, err
	}

	return &PostDetail{
		ID:        summary.ID,
		Title:     summary.Title,
		Content:   summary.Content,
		User:      summary.User,
		Category:  summary.Category,
		Comments:  comments,
		CreatedAt: summary.CreatedAt,
		UpdatedAt: summary.UpdatedAt,
	}, nil
}

// updatePost only touches the mutable columns. user_id and category_id are
// fixed at insert time; keying the update on user_id guards the ownership
// rule even if a caller skips the policy check.
func (m *PostModel) updatePost(ctx context.Context, id, userID int, title, content string) error {
	query := `
		UPDATE posts
		SET title = $1, content = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4`

	res, err := m.db.ExecContext(ctx, query, title, content, id, userID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

func (m *PostModel) deletePost(ctx context.Context, id, userID int) error {
	query := `
		DELETE FROM posts
		WHERE id = $1 AND user_id = $2`

	res, err := m.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// getPostContact returns what the notification needs about a post: its title
// and the owner's name and email address.
func (m *PostModel) getPostContact(ctx context.Context, id int) (ownerID int, ownerName, ownerEmail, title string, err error) {
	query := `
		SELECT u.id, u.name, u.email, p.title
		FROM posts p
		JOIN users u ON p.user_id = u.id
		WHERE p.id = $1`

	err = m.db.QueryRowContext(ctx, query, id).Scan(&ownerID, &ownerName, &ownerEmail, &title)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			err = ErrRecordNotFound
		}
		return 0, "", "", "", err
	}

	return ownerID, ownerName, ownerEmail, title, nil
}
