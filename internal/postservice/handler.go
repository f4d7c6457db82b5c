package postservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/sushihentaime/postboard/internal/common"
)

func NewPostService(db *sql.DB, c *common.Cache, mb common.MessageProducer, logger *slog.Logger) *PostService {
	return &PostService{m: newPostModel(db), c: c, mb: mb, logger: logger}
}

type CreatePostRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	CategoryID int    `json:"category_id"`
	UserID     int    `json:"user_id"`
}

type UpdatePostRequest struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  int    `json:"user_id"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
	PostID  int    `json:"post_id"`
	UserID  int    `json:"user_id"`
}

type UpdateCommentRequest struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	UserID  int    `json:"user_id"`
}

// CommentCreatedEvent is published to the post exchange whenever a comment is
// added to another user's post.
type CommentCreatedEvent struct {
	OwnerName     string `json:"owner_name"`
	OwnerEmail    string `json:"owner_email"`
	PostTitle     string `json:"post_title"`
	CommenterName string `json:"commenter_name"`
}

// CreatePost creates a new post and returns its summary projection. The user
// and category must both exist.
func (s *PostService) CreatePost(ctx context.Context, req *CreatePostRequest) (*PostSummary, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	validateInt(v, req.CategoryID, "category_id")
	validateInt(v, req.UserID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	id, err := s.m.insertPost(ctx, req.Title, sanitizeMarkdown(req.Content), req.UserID, req.CategoryID)
	if err != nil {
		return nil, err
	}

	s.c.Flush()

	return s.m.getPostSummary(ctx, id)
}

// GetPosts returns the summary of every post in creation order.
func (s *PostService) GetPosts(ctx context.Context) ([]PostSummary, error) {
	if cached, ok := s.c.Get(common.CacheKeyPosts()); ok {
		return cached.([]PostSummary), nil
	}

	posts, err := s.m.getPosts(ctx)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyPosts(), posts)

	return posts, nil
}

// GetPost returns a single post with its full comment list. Any id without a
// matching row, non-positive ones included, reports ErrRecordNotFound: on the
// read paths absence is the outcome, not invalid input.
func (s *PostService) GetPost(ctx context.Context, id int) (*PostDetail, error) {
	if cached, ok := s.c.Get(common.CacheKeyPost(id)); ok {
		return cached.(*PostDetail), nil
	}

	post, err := s.m.getPostDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyPost(id), post)

	return post, nil
}

// GetPostsByCategory returns post summaries for one category. An unknown
// category yields an empty list, not an error.
func (s *PostService) GetPostsByCategory(ctx context.Context, categoryID int) ([]PostSummary, error) {
	if cached, ok := s.c.Get(common.CacheKeyPostsByCategory(categoryID)); ok {
		return cached.([]PostSummary), nil
	}

	posts, err := s.m.getPostsByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyPostsByCategory(categoryID), posts)

	return posts, nil
}

// UpdatePost rewrites the title and content of a post. Ownership and category
// linkage are immutable; a resubmitted category_id is ignored.
func (s *PostService) UpdatePost(ctx context.Context, req *UpdatePostRequest) (*PostSummary, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	validateInt(v, req.ID, "id")
	validateInt(v, req.UserID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	err := s.m.updatePost(ctx, req.ID, req.UserID, req.Title, sanitizeMarkdown(req.Content))
	if err != nil {
		return nil, err
	}

	s.c.Flush()

	return s.m.getPostSummary(ctx, req.ID)
}

// DeletePost removes a post; its comments cascade away with it.
func (s *PostService) DeletePost(ctx context.Context, postId, userId int) error {
	v := common.NewValidator()
	validateInt(v, postId, "id")
	validateInt(v, userId, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	err := s.m.deletePost(ctx, postId, userId)
	if err != nil {
		return err
	}

	s.c.Flush()

	return nil
}

// CreateComment adds a comment to an existing post and notifies the post
// owner through the message broker, unless the owner is commenting on their
// own post. The notification is best-effort: once the comment row exists a
// broker failure is logged, never surfaced to the commenter.
func (s *PostService) CreateComment(ctx context.Context, req *CreateCommentRequest) (*Comment, error) {
	v := common.NewValidator()
	validateContent(v, req.Content)
	validateInt(v, req.PostID, "post_id")
	validateInt(v, req.UserID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	id, err := s.m.insertComment(ctx, sanitizeMarkdown(req.Content), req.UserID, req.PostID)
	if err != nil {
		return nil, err
	}

	s.c.Flush()

	comment, err := s.m.getCommentById(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.notifyPostOwner(ctx, req.PostID, req.UserID, comment.User.Name)
	if err != nil {
		s.logger.Error("could not publish comment notification", slog.Int("post_id", req.PostID), slog.String("error", err.Error()))
	}

	return comment, nil
}

func (s *PostService) notifyPostOwner(ctx context.Context, postID, commenterID int, commenterName string) error {
	ownerID, ownerName, ownerEmail, title, err := s.m.getPostContact(ctx, postID)
	if err != nil {
		return err
	}

	if ownerID == commenterID {
		return nil
	}

	event := CommentCreatedEvent{
		OwnerName:     ownerName,
		OwnerEmail:    ownerEmail,
		PostTitle:     title,
		CommenterName: commenterName,
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.mb.Publish(ctx, eventData, common.CommentCreatedKey, common.PostExchange)
}

// GetComment returns a single comment with its author projection.
func (s *PostService) GetComment(ctx context.Context, id int) (*Comment, error) {
	return s.m.getCommentById(ctx, id)
}

// GetCommentsByPost returns the comments of one post in creation order.
func (s *PostService) GetCommentsByPost(ctx context.Context, postId int) ([]Comment, error) {
	return s.m.getCommentsByPost(ctx, postId)
}

// UpdateComment rewrites the content of a comment. The author and parent post
// linkage are immutable.
func (s *PostService) UpdateComment(ctx context.Context, req *UpdateCommentRequest) (*Comment, error) {
	v := common.NewValidator()
	validateContent(v, req.Content)
	validateInt(v, req.ID, "id")
	validateInt(v, req.UserID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	err := s.m.updateComment(ctx, req.ID, req.UserID, sanitizeMarkdown(req.Content))
	if err != nil {
		return nil, err
	}

	s.c.Flush()

	return s.m.getCommentById(ctx, req.ID)
}

// DeleteComment removes a comment.
func (s *PostService) DeleteComment(ctx context.Context, commentId, userId int) error {
	v := common.NewValidator()
	validateInt(v, commentId, "id")
	validateInt(v, userId, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	err := s.m.deleteComment(ctx, commentId, userId)
	if err != nil {
		return err
	}

	s.c.Flush()

	return nil
}
