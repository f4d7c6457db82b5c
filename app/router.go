package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// user service
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/logout", app.requireAuthUser(app.logoutUserHandler))
	router.HandlerFunc(http.MethodGet, "/v1/user", app.requireAuthUser(app.currentUserHandler))

	// post service. Mutating handlers run the authorization policy themselves
	// so that absence, missing authentication, and ownership denial stay
	// distinguishable.
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts", app.createPostHandler)
	router.HandlerFunc(http.MethodGet, "/v1/posts/:id", app.getPostHandler)
	router.HandlerFunc(http.MethodPut, "/v1/posts/:id", app.updatePostHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/posts/:id", app.updatePostHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/posts/:id", app.deletePostHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts/:id/comments", app.createCommentHandler)
	router.HandlerFunc(http.MethodPut, "/v1/comments/:id", app.updateCommentHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/comments/:id", app.updateCommentHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/comments/:id", app.deleteCommentHandler)
	router.HandlerFunc(http.MethodGet, "/v1/categories/:id/posts", app.listPostsByCategoryHandler)

	return app.recoverPanic(app.rateLimit(app.logRequest(app.authenticate(router))))
}
