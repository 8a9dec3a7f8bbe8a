package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// CommentService manages presentation comments.
type CommentService struct {
	backend Backend
	logger  *slog.Logger
}

// NewCommentService constructs a comment service over backend.
func NewCommentService(backend Backend) *CommentService {
	return NewCommentServiceWithLogger(backend, nil)
}

// NewCommentServiceWithLogger constructs a comment service with a specified logger.
func NewCommentServiceWithLogger(backend Backend, logger *slog.Logger) *CommentService {
	return &CommentService{backend: backend, logger: defaultLogger(logger)}
}

func (s *CommentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CommentService", operation, attrs...)
}

func (s *CommentService) ready() error {
	if s == nil || s.backend == nil {
		return fmt.Errorf("CommentService is not configured")
	}
	return nil
}

// Add posts a comment on a presentation. Scalars travel as query parameters.
func (s *CommentService) Add(ctx context.Context, presentationID int64, content string) (comment Comment, err error) {
	if err = s.ready(); err != nil {
		return Comment{}, err
	}
	logger := s.loggerWith(ctx, "Add", "presentation_id", presentationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add comment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("comment_id", comment.ID).InfoContext(ctx, "comment added")
	}()

	if vErr := validateCommentContent(content); vErr.HasErrors() {
		err = vErr
		return Comment{}, err
	}

	query := url.Values{
		"idPresentation": {strconv.FormatInt(presentationID, 10)},
		"contenu":        {strings.TrimSpace(content)},
	}
	var dto commentDTO
	if err = sendJSON(ctx, s.backend, http.MethodPost, "/commentaires", query, nil, &dto); err != nil {
		err = remoteError("add comment", err)
		return Comment{}, err
	}
	return toComment(dto, presentationID), nil
}

// ForPresentation returns the comments of a presentation.
func (s *CommentService) ForPresentation(ctx context.Context, presentationID int64) (comments []Comment, err error) {
	if err = s.ready(); err != nil {
		return nil, err
	}
	logger := s.loggerWith(ctx, "ForPresentation", "presentation_id", presentationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load comments", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var dtos []commentDTO
	if err = getJSON(ctx, s.backend, idPath("/commentaires/presentation/%s", presentationID), nil, &dtos); err != nil {
		err = remoteError("list comments", err)
		return nil, err
	}
	return toComments(dtos, presentationID), nil
}

// Mine returns the comments written by the signed-in user.
func (s *CommentService) Mine(ctx context.Context) (comments []Comment, err error) {
	if err = s.ready(); err != nil {
		return nil, err
	}
	logger := s.loggerWith(ctx, "Mine")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load my comments", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var dtos []commentDTO
	if err = getJSON(ctx, s.backend, "/commentaires/my", nil, &dtos); err != nil {
		err = remoteError("list my comments", err)
		return nil, err
	}
	return toComments(dtos, 0), nil
}

// Update replaces the content of a comment.
func (s *CommentService) Update(ctx context.Context, commentID int64, content string) (comment Comment, err error) {
	if err = s.ready(); err != nil {
		return Comment{}, err
	}
	logger := s.loggerWith(ctx, "Update", "comment_id", commentID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update comment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "comment updated")
	}()

	if vErr := validateCommentContent(content); vErr.HasErrors() {
		err = vErr
		return Comment{}, err
	}

	var dto commentDTO
	query := url.Values{"contenu": {strings.TrimSpace(content)}}
	if err = sendJSON(ctx, s.backend, http.MethodPut, idPath("/commentaires/%s", commentID), query, nil, &dto); err != nil {
		err = remoteError("update comment", err)
		return Comment{}, err
	}
	if dto.ID == 0 {
		dto.ID = commentID
	}
	return toComment(dto, 0), nil
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, commentID int64) (err error) {
	if err = s.ready(); err != nil {
		return err
	}
	logger := s.loggerWith(ctx, "Delete", "comment_id", commentID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete comment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "comment deleted")
	}()

	if err = deleteResource(ctx, s.backend, idPath("/commentaires/%s", commentID)); err != nil {
		err = remoteError("delete comment", err)
	}
	return err
}

func toComments(dtos []commentDTO, presentationID int64) []Comment {
	out := make([]Comment, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, toComment(dto, presentationID))
	}
	return out
}
