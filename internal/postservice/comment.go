package postservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (m *PostModel) insertComment(ctx context.Context, content string, userID, postID int) (int, error) {
	query := `
		INSERT INTO comments (content, user_id, post_id)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id int
	err := m.db.QueryRowContext(ctx, query, content, userID, postID).Scan(&id)
	if err != nil {
		switch {
		case ForeignKeyError(err, "comments_user_id_fkey"):
			return 0, ErrUserForeignKey
		case ForeignKeyError(err, "comments_post_id_fkey"):
			return 0, ErrPostForeignKey
		default:
			return 0, err
		}
	}

	return id, nil
}

func (m *PostModel) getCommentById(ctx context.Context, id int) (*Comment, error) {
	query := `
		SELECT cm.id, cm.content, cm.post_id, cm.created_at, cm.updated_at, u.id, u.name
		FROM comments cm
		JOIN users u ON cm.user_id = u.id
		WHERE cm.id = $1`

	row := m.db.QueryRowContext(ctx, query, id)

	var comment Comment
	err := row.Scan(&comment.ID, &comment.Content, &comment.PostID, &comment.CreatedAt, &comment.UpdatedAt, &comment.User.ID, &comment.User.Name)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &comment, nil
}

// getCommentsByPost returns a post's comments in creation order, each with the
// author narrowed to id and name.
func (m *PostModel) getCommentsByPost(ctx context.Context, postID int) ([]Comment, error) {
	query := `
		SELECT cm.id, cm.content, cm.post_id, cm.created_at, cm.updated_at, u.id, u.name
		FROM comments cm
		JOIN users u ON cm.user_id = u.id
		WHERE cm.post_id = $1
		ORDER BY cm.id`

	rows, err := m.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var comment Comment
		err := rows.Scan(&comment.ID, &comment.Content, &comment.PostID, &comment.CreatedAt, &comment.UpdatedAt, &comment.User.ID, &comment.User.Name)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

// updateComment only touches the content column. user_id and post_id are fixed
// at insert time.
func (m *PostModel) updateComment(ctx context.Context, id, userID int, content string) error {
	query := `
		UPDATE comments
		SET content = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3`

	res, err := m.db.ExecContext(ctx, query, content, id, userID)
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

func (m *PostModel) deleteComment(ctx context.Context, id, userID int) error {
	query := `
		DELETE FROM comments
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
