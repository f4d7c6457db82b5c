package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func registerTestUser(t *testing.T, app *application, name, email string) (int, string) {
	ctx := context.Background()

	user, err := app.userService.RegisterUser(ctx, name, email, "Test_1234!")
	assert.NoError(t, err)

	token, err := app.userService.LoginUser(ctx, email, "Test_1234!")
	assert.NoError(t, err)

	return user.ID, token.Plain
}

func createTestCategory(t *testing.T, db *sql.DB, name string) int {
	var id int
	err := db.QueryRow("INSERT INTO categories (name) VALUES ($1) RETURNING id", name).Scan(&id)
	assert.NoError(t, err)

	return id
}

func createTestPost(t *testing.T, db *sql.DB, title, content string, userId, categoryId int) int {
	var id int
	err := db.QueryRow("INSERT INTO posts (title, content, user_id, category_id) VALUES ($1, $2, $3, $4) RETURNING id", title, content, userId, categoryId).Scan(&id)
	assert.NoError(t, err)

	return id
}

func createTestComment(t *testing.T, db *sql.DB, content string, userId, postId int) int {
	var id int
	err := db.QueryRow("INSERT INTO comments (content, user_id, post_id) VALUES ($1, $2, $3) RETURNING id", content, userId, postId).Scan(&id)
	assert.NoError(t, err)

	return id
}

func TestCreatePostHandler(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, token := registerTestUser(t, app, "alice", "alice@example.com")
	categoryId := createTestCategory(t, db, "golang")

	testCases := []struct {
		name       string
		payload    any
		token      *string
		wantStatus int
	}{
		{
			name: "Valid Request",
			payload: map[string]any{
				"title":       "My First Post",
				"content":     "Hello, world!",
				"category_id": categoryId,
			},
			token:      &token,
			wantStatus: http.StatusCreated,
		},
		{
			name: "Unauthenticated",
			payload: map[string]any{
				"title":       "Anonymous Post",
				"content":     "Hello, world!",
				"category_id": categoryId,
			},
			token:      nil,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "Unknown Category",
			payload: map[string]any{
				"title":       "Orphaned Post",
				"content":     "Hello, world!",
				"category_id": 9999,
			},
			token:      &token,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "Missing Title",
			payload: map[string]any{
				"title":       "",
				"content":     "Hello, world!",
				"category_id": categoryId,
			},
			token:      &token,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, body := ts.post(t, "/v1/posts", tc.token, tc.payload)
			assert.Equal(t, tc.wantStatus, status)

			if tc.wantStatus == http.StatusCreated {
				data, ok := body["data"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, "My First Post", data["title"])
				assert.Equal(t, float64(0), data["comments_count"])

				user, ok := data["user"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, "alice", user["name"])
				_, hasEmail := user["email"]
				assert.False(t, hasEmail)

				category, ok := data["category"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, "golang", category["name"])
			}
		})
	}

	// the unauthenticated and rejected attempts must not leave rows behind
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetPostHandler(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	aliceId, _ := registerTestUser(t, app, "alice", "alice@example.com")
	bobId, _ := registerTestUser(t, app, "bob", "bob@example.com")
	categoryId := createTestCategory(t, db, "golang")
	postId := createTestPost(t, db, "My First Post", "Hello, world!", aliceId, categoryId)
	createTestComment(t, db, "First!", bobId, postId)
	createTestComment(t, db, "Nice post", aliceId, postId)

	t.Run("Existing Post", func(t *testing.T) {
		status, _, body := ts.get(t, fmt.Sprintf("/v1/posts/%d", postId), nil)
		assert.Equal(t, http.StatusOK, status)

		data, ok := body["data"].(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, "My First Post", data["title"])

		// comments carry full bodies and author projections, in creation order
		comments, ok := data["comments"].([]any)
		assert.True(t, ok)
		assert.Len(t, comments, 2)

		first := comments[0].(map[string]any)
		assert.Equal(t, "First!", first["content"])
		author := first["user"].(map[string]any)
		assert.Equal(t, "bob", author["name"])
		_, hasEmail := author["email"]
		assert.False(t, hasEmail)

		second := comments[1].(map[string]any)
		assert.Equal(t, "Nice post", second["content"])
	})

	t.Run("Missing Post", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/posts/9999", nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Post not found", body["message"])
	})

	t.Run("Non-Positive ID", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/posts/0", nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Post not found", body["message"])
	})
}

func TestListPostsHandler(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	aliceId, _ := registerTestUser(t, app, "alice", "alice@example.com")
	bobId, _ := registerTestUser(t, app, "bob", "bob@example.com")
	categoryId := createTestCategory(t, db, "golang")
	otherCategoryId := createTestCategory(t, db, "rust")
	firstId := createTestPost(t, db, "First Post", "one", aliceId, categoryId)
	createTestPost(t, db, "Second Post", "two", bobId, otherCategoryId)
	createTestComment(t, db, "hi", bobId, firstId)
	createTestComment(t, db, "hello", aliceId, firstId)

	status, _, body := ts.get(t, "/v1/posts", nil)
	assert.Equal(t, http.StatusOK, status)

	data, ok := body["data"].([]any)
	assert.True(t, ok)
	assert.Len(t, data, 2)

	first := data[0].(map[string]any)
	assert.Equal(t, "First Post", first["title"])
	assert.Equal(t, float64(2), first["comments_count"])

	// summaries never embed the comment bodies
	_, hasComments := first["comments"]
	assert.False(t, hasComments)

	second := data[1].(map[string]any)
	assert.Equal(t, "Second Post", second["title"])
	assert.Equal(t, float64(0), second["comments_count"])
}

func TestListPostsByCategoryHandler(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	aliceId, _ := registerTestUser(t, app, "alice", "alice@example.com")
	golangId := createTestCategory(t, db, "golang")
	rustId := createTestCategory(t, db, "rust")
	createTestPost(t, db, "Go Post", "go", aliceId, golangId)
	createTestPost(t, db, "Rust Post", "rust", aliceId, rustId)

	t.Run("Known Category", func(t *testing.T) {
		status, _, body := ts.get(t, fmt.Sprintf("/v1/categories/%d/posts", golangId), nil)
		assert.Equal(t, http.StatusOK, status)

		data, ok := body["data"].([]any)
		assert.True(t, ok)
		assert.Len(t, data, 1)
		assert.Equal(t, "Go Post", data[0].(map[string]any)["title"])
	})

	t.Run("Unknown Category", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/categories/9999/posts", nil)
		assert.Equal(t, http.StatusOK, status)

		data, ok := body["data"].([]any)
		assert.True(t, ok)
		assert.Len(t, data, 0)
	})
}

func TestUpdatePostHandler(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	aliceId, aliceToken := registerTestUser(t, app, "alice", "alice@example.com")
	_, bobToken := registerTestUser(t, app, "bob", "bob@example.com")
	categoryId := createTestCategory(t, db, "golang")
	postId := createTestPost(t, db, "Original Title", "original content", aliceId, categoryId)

	payload := map[string]any{
		"title":   "Updated Title",
		"content": "updated content",
	}

	t.Run("Unauthenticated", func(t *testing.T) {
		status, _, _ := ts.put(t, fmt.Sprintf("/v1/posts/%d", postId), nil, payload)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Non-Owner", func(t *testing.T) {
		status, _, _ := ts.put(t, fmt.Sprintf("/v1/posts/%d", postId), &bobToken, payload)
		assert.Equal(t, http.StatusForbidden, status)

		// a denied update must leave the post untouched
		var title string
		err := db.QueryRow("SELECT title FROM posts WHERE id = $1", postId).Scan(&title)
		assert.NoError(t, err)
		assert.Equal(t, "Original Title", title)
	})

	t.Run("Missing Post", func(t *testing.T) {
		status, _, body := ts.put(t, "/v1/posts/9999", &aliceToken, payload)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Post not found", body["message"])
	})

	t.Run("Owner", func(t *testing.T) {
		status, _, body := ts.put(t, fmt.Sprintf("/v1/posts/%d", postId), &aliceToken, payload)
		assert.Equal(t, http.StatusOK, status)

		data, ok := body["data"].(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, "Updated Title", data["title"])

		// linkage fields survive the rewrite
		category := data["category"].(map[string]any)
		assert.Equal(t, float64(categoryId), category["id"])
		user := data["user"].(map[string]any)
		assert.Equal(t, float64(aliceId), user["id"])
	})

	t.Run("Owner Via Patch", func(t *testing.T) {
		status, _, body := ts.patch(t, fmt.Sprintf("/v1/posts/%d", postId), &aliceToken, map[string]any{
			"title":   "Patched Title",
			"content": "patched content",
		})
		assert.Equal(t, http.StatusOK, status)

		data, ok := body["data"].(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, "Patched Title", data["title"])
	})

	t.Run("Resubmitted Category Ignored", func(t *testing.T) {
		otherId := createTestCategory(t, db, "rust")

		status, _, body := ts.put(t, fmt.Sprintf("/v1/posts/%d", postId), &aliceToken, map[string]any{
			"title":       "Updated Again",
			"content":     "updated content",
			"category_id": otherId,
		})
		assert.Equal(t, http.StatusOK, status)

		data := body["data"].(map[string]any)
		category := data["category"].(map[string]any)
		assert.Equal(t, float64(categoryId), category["id"])
	})
}

func TestDeletePostHandler(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	aliceId, aliceToken := registerTestUser(t, app, "alice", "alice@example.com")
	bobId, bobToken := registerTestUser(t, app, "bob", "bob@example.com")
	categoryId := createTestCategory(t, db, "golang")
	postId := createTestPost(t, db, "My First Post", "Hello, world!", aliceId, categoryId)
	createTestComment(t, db, "First!", bobId, postId)

	t.Run("Unauthenticated", func(t *testing.T) {
		status, _, _ := ts.delete(t, fmt.Sprintf("/v1/posts/%d", postId), nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Non-Owner", func(t *testing.T) {
		status, _, _ := ts.delete(t, fmt.Sprintf("/v1/posts/%d", postId), &bobToken)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("Owner", func(t *testing.T) {
		status, _, body := ts.delete(t, fmt.Sprintf("/v1/posts/%d", postId), &aliceToken)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Post deleted successfully", body["message"])

		// comments cascade away with the post
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM comments WHERE post_id = $1", postId).Scan(&count)
		assert.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("Missing Post", func(t *testing.T) {
		status, _, body := ts.delete(t, fmt.Sprintf("/v1/posts/%d", postId), &aliceToken)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Post not found", body["message"])
	})
}

func TestCreateCommentHandler(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	aliceId, _ := registerTestUser(t, app, "alice", "alice@example.com")
	_, bobToken := registerTestUser(t, app, "bob", "bob@example.com")
	categoryId := createTestCategory(t, db, "golang")
	postId := createTestPost(t, db, "My First Post", "Hello, world!", aliceId, categoryId)

	payload := map[string]any{"content": "Great write-up!"}

	t.Run("Unauthenticated", func(t *testing.T) {
		status, _, _ := ts.post(t, fmt.Sprintf("/v1/posts/%d/comments", postId), nil, payload)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Missing Post", func(t *testing.T) {
		status, _, body := ts.post(t, "/v1/posts/9999/comments", &bobToken, payload)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Post not found", body["message"])
	})

	t.Run("Valid Request", func(t *testing.T) {
		status, _, body := ts.post(t, fmt.Sprintf("/v1/posts/%d/comments", postId), &bobToken, payload)
		assert.Equal(t, http.StatusCreated, status)

		data, ok := body["data"].(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, "Great write-up!", data["content"])

		author := data["user"].(map[string]any)
		assert.Equal(t, "bob", author["name"])
	})

	t.Run("Empty Content", func(t *testing.T) {
		status, _, _ := ts.post(t, fmt.Sprintf("/v1/posts/%d/comments", postId), &bobToken, map[string]any{"content": ""})
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})
}

func TestUpdateCommentHandler(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	aliceId, aliceToken := registerTestUser(t, app, "alice", "alice@example.com")
	bobId, bobToken := registerTestUser(t, app, "bob", "bob@example.com")
	categoryId := createTestCategory(t, db, "golang")
	postId := createTestPost(t, db, "My First Post", "Hello, world!", aliceId, categoryId)
	commentId := createTestComment(t, db, "First!", bobId, postId)

	payload := map[string]any{"content": "First! (edited)"}

	t.Run("Unauthenticated", func(t *testing.T) {
		status, _, _ := ts.put(t, fmt.Sprintf("/v1/comments/%d", commentId), nil, payload)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Non-Author", func(t *testing.T) {
		// the post owner still may not edit someone else's comment
		status, _, _ := ts.put(t, fmt.Sprintf("/v1/comments/%d", commentId), &aliceToken, payload)
		assert.Equal(t, http.StatusForbidden, status)

		var content string
		err := db.QueryRow("SELECT content FROM comments WHERE id = $1", commentId).Scan(&content)
		assert.NoError(t, err)
		assert.Equal(t, "First!", content)
	})

	t.Run("Missing Comment", func(t *testing.T) {
		status, _, body := ts.put(t, "/v1/comments/9999", &bobToken, payload)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Comment not found", body["message"])
	})

	t.Run("Author", func(t *testing.T) {
		status, _, body := ts.put(t, fmt.Sprintf("/v1/comments/%d", commentId), &bobToken, payload)
		assert.Equal(t, http.StatusOK, status)

		data, ok := body["data"].(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, "First! (edited)", data["content"])
	})

	t.Run("Author Via Patch", func(t *testing.T) {
		status, _, body := ts.patch(t, fmt.Sprintf("/v1/comments/%d", commentId), &bobToken, map[string]any{"content": "First! (patched)"})
		assert.Equal(t, http.StatusOK, status)

		data, ok := body["data"].(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, "First! (patched)", data["content"])
	})
}

func TestDeleteCommentHandler(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	aliceId, aliceToken := registerTestUser(t, app, "alice", "alice@example.com")
	bobId, bobToken := registerTestUser(t, app, "bob", "bob@example.com")
	categoryId := createTestCategory(t, db, "golang")
	postId := createTestPost(t, db, "My First Post", "Hello, world!", aliceId, categoryId)
	commentId := createTestComment(t, db, "First!", bobId, postId)

	t.Run("Unauthenticated", func(t *testing.T) {
		status, _, _ := ts.delete(t, fmt.Sprintf("/v1/comments/%d", commentId), nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Non-Author", func(t *testing.T) {
		status, _, _ := ts.delete(t, fmt.Sprintf("/v1/comments/%d", commentId), &aliceToken)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("Author", func(t *testing.T) {
		status, _, body := ts.delete(t, fmt.Sprintf("/v1/comments/%d", commentId), &bobToken)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Comment deleted successfully", body["message"])
	})

	t.Run("Missing Comment", func(t *testing.T) {
		status, _, body := ts.delete(t, fmt.Sprintf("/v1/comments/%d", commentId), &bobToken)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Comment not found", body["message"])
	})
}

func TestRegisterUserHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	testCases := []struct {
		name       string
		payload    any
		wantStatus int
		wantBody   envelope
	}{
		{
			name: "Valid Request",
			payload: map[string]any{
				"name":     "alice",
				"email":    "alice@example.com",
				"password": "Test_1234!",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "Duplicate Email",
			payload: map[string]any{
				"name":     "alice2",
				"email":    "alice@example.com",
				"password": "Test_1234!",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   envelope{"error": map[string]any{"email": "a user with this email address already exists"}},
		},
		{
			name: "Duplicate Name",
			payload: map[string]any{
				"name":     "alice",
				"email":    "alice2@example.com",
				"password": "Test_1234!",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   envelope{"error": map[string]any{"name": "this name is already taken"}},
		},
		{
			name: "Weak Password",
			payload: map[string]any{
				"name":     "bob",
				"email":    "bob@example.com",
				"password": "password",
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, body := ts.post(t, "/v1/users/register", nil, tc.payload)
			assert.Equal(t, tc.wantStatus, status)

			if tc.wantBody != nil {
				assert.Equal(t, tc.wantBody, body)
			}

			if tc.wantStatus == http.StatusCreated {
				data, ok := body["data"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, "alice", data["name"])
			}
		})
	}
}

func TestLoginUserHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	registerTestUser(t, app, "alice", "alice@example.com")

	t.Run("Valid Credentials", func(t *testing.T) {
		status, _, body := ts.post(t, "/v1/users/login", nil, map[string]any{
			"email":    "alice@example.com",
			"password": "Test_1234!",
		})
		assert.Equal(t, http.StatusOK, status)

		token, ok := body["token"].(map[string]any)
		assert.True(t, ok)
		assert.NotEmpty(t, token["token"])
	})

	t.Run("Wrong Password", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/users/login", nil, map[string]any{
			"email":    "alice@example.com",
			"password": "Wrong_1234!",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Unknown Email", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/users/login", nil, map[string]any{
			"email":    "nobody@example.com",
			"password": "Test_1234!",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestLogoutUserHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, token := registerTestUser(t, app, "alice", "alice@example.com")

	status, _, _ := ts.post(t, "/v1/users/logout", &token, map[string]any{})
	assert.Equal(t, http.StatusOK, status)

	// the token no longer resolves
	status, _, _ = ts.get(t, "/v1/user", &token)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCurrentUserHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, token := registerTestUser(t, app, "alice", "alice@example.com")

	t.Run("Authenticated", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/user", &token)
		assert.Equal(t, http.StatusOK, status)

		data, ok := body["data"].(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, "alice", data["name"])
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		status, _, _ := ts.get(t, "/v1/user", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestHealthCheckHandler(t *testing.T) {
	app := &application{
		config: &Config{Environment: "test", Version: "0.0.1"},
	}
	ts := newTestServer(t, http.HandlerFunc(app.healthCheckHandler))

	res, err := ts.Client().Get(ts.URL)
	assert.NoError(t, err)

	status, _, body := readResponse(t, res)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "available", body["status"])
}
