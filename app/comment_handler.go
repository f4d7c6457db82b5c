package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/postboard/internal/common"
	"github.com/sushihentaime/postboard/internal/postservice"
)

type createCommentRequest struct {
	Content string `json:"content"`
}

func (app *application) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	postId, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	// Resolve the parent post first: commenting on a missing post is an
	// absence, not a denial.
	_, err = app.postService.GetPost(r.Context(), postId)
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.resourceNotFoundResponse(w, r, "Post")
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	user := app.getUserContext(r)

	switch postservice.Authorize(user, postservice.ActionCreate, 0) {
	case postservice.Unauthenticated:
		app.authenticationRequiredResponse(w, r)
		return
	case postservice.Forbidden:
		app.forbiddenResponse(w, r)
		return
	}

	var input createCommentRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comment, err := app.postService.CreateComment(r.Context(), &postservice.CreateCommentRequest{
		Content: input.Content,
		PostID:  postId,
		UserID:  user.ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrPostForeignKey):
			app.resourceNotFoundResponse(w, r, "Post")
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"data": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

func (app *application) updateCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comment, err := app.postService.GetComment(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.resourceNotFoundResponse(w, r, "Comment")
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	user := app.getUserContext(r)

	switch postservice.Authorize(user, postservice.ActionUpdate, comment.User.ID) {
	case postservice.Unauthenticated:
		app.authenticationRequiredResponse(w, r)
		return
	case postservice.Forbidden:
		app.forbiddenResponse(w, r)
		return
	}

	var input updateCommentRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	updated, err := app.postService.UpdateComment(r.Context(), &postservice.UpdateCommentRequest{
		ID:      id,
		Content: input.Content,
		UserID:  user.ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.resourceNotFoundResponse(w, r, "Comment")
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"data": updated}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comment, err := app.postService.GetComment(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.resourceNotFoundResponse(w, r, "Comment")
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	user := app.getUserContext(r)

	switch postservice.Authorize(user, postservice.ActionDelete, comment.User.ID) {
	case postservice.Unauthenticated:
		app.authenticationRequiredResponse(w, r)
		return
	case postservice.Forbidden:
		app.forbiddenResponse(w, r)
		return
	}

	err = app.postService.DeleteComment(r.Context(), id, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.resourceNotFoundResponse(w, r, "Comment")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "Comment deleted successfully"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}
