package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/plateforme-admin/internal/apiclient"
)

// VoteService manages presentation ratings.
type VoteService struct {
	backend Backend
	logger  *slog.Logger
}

var _ StatsSource = (*VoteService)(nil)

// NewVoteService constructs a vote service over backend.
func NewVoteService(backend Backend) *VoteService {
	return NewVoteServiceWithLogger(backend, nil)
}

// NewVoteServiceWithLogger constructs a vote service with a specified logger.
func NewVoteServiceWithLogger(backend Backend, logger *slog.Logger) *VoteService {
	return &VoteService{backend: backend, logger: defaultLogger(logger)}
}

func (s *VoteService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "VoteService", operation, attrs...)
}

func (s *VoteService) ready() error {
	if s == nil || s.backend == nil {
		return fmt.Errorf("VoteService is not configured")
	}
	return nil
}

// Cast adds or replaces the signed-in user's rating of a presentation.
func (s *VoteService) Cast(ctx context.Context, presentationID int64, rating int) (vote Vote, err error) {
	if err = s.ready(); err != nil {
		return Vote{}, err
	}
	logger := s.loggerWith(ctx, "Cast", "presentation_id", presentationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cast vote", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("vote_id", vote.ID).InfoContext(ctx, "vote recorded")
	}()

	if vErr := validateRating(rating); vErr.HasErrors() {
		err = vErr
		return Vote{}, err
	}

	query := url.Values{
		"idPresentation": {strconv.FormatInt(presentationID, 10)},
		"note":           {strconv.Itoa(rating)},
	}
	var dto voteDTO
	if err = sendJSON(ctx, s.backend, http.MethodPost, "/votes", query, nil, &dto); err != nil {
		err = remoteError("cast vote", err)
		return Vote{}, err
	}
	if dto.Rating == 0 {
		dto.Rating = rating
	}
	return toVote(dto, presentationID), nil
}

// ForPresentation returns every vote on a presentation.
func (s *VoteService) ForPresentation(ctx context.Context, presentationID int64) (votes []Vote, err error) {
	if err = s.ready(); err != nil {
		return nil, err
	}
	logger := s.loggerWith(ctx, "ForPresentation", "presentation_id", presentationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load votes", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var dtos []voteDTO
	if err = getJSON(ctx, s.backend, idPath("/votes/presentation/%s", presentationID), nil, &dtos); err != nil {
		err = remoteError("list votes", err)
		return nil, err
	}
	votes = make([]Vote, 0, len(dtos))
	for _, dto := range dtos {
		votes = append(votes, toVote(dto, presentationID))
	}
	return votes, nil
}

// Mine returns the signed-in user's vote on a presentation. The second
// result is false when the user has not voted.
func (s *VoteService) Mine(ctx context.Context, presentationID int64) (vote Vote, found bool, err error) {
	if err = s.ready(); err != nil {
		return Vote{}, false, err
	}

	var dto voteDTO
	err = getJSON(ctx, s.backend, idPath("/votes/presentation/%s/my", presentationID), nil, &dto)
	if apiclient.IsNotFound(err) {
		return Vote{}, false, nil
	}
	if err != nil {
		err = remoteError("get my vote", err)
		s.loggerWith(ctx, "Mine", "presentation_id", presentationID).
			ErrorContext(ctx, "failed to load my vote", "error", err, "error_kind", ErrorKind(err))
		return Vote{}, false, err
	}
	if dto.ID == 0 && dto.Rating == 0 {
		return Vote{}, false, nil
	}
	return toVote(dto, presentationID), true, nil
}

// Delete removes a vote.
func (s *VoteService) Delete(ctx context.Context, voteID int64) (err error) {
	if err = s.ready(); err != nil {
		return err
	}
	logger := s.loggerWith(ctx, "Delete", "vote_id", voteID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete vote", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "vote deleted")
	}()

	if err = deleteResource(ctx, s.backend, idPath("/votes/%s", voteID)); err != nil {
		err = remoteError("delete vote", err)
	}
	return err
}

// Average returns the mean rating of a presentation, or 0 when it cannot be
// loaded.
func (s *VoteService) Average(ctx context.Context, presentationID int64) float64 {
	average, err := s.average(ctx, presentationID)
	if err != nil {
		s.loggerWith(ctx, "Average", "presentation_id", presentationID).
			WarnContext(ctx, "average unavailable", "error", err, "error_kind", ErrorKind(err))
		return 0
	}
	return average
}

// Count returns the number of votes on a presentation, or 0 when it cannot
// be loaded.
func (s *VoteService) Count(ctx context.Context, presentationID int64) int {
	count, err := s.count(ctx, presentationID)
	if err != nil {
		s.loggerWith(ctx, "Count", "presentation_id", presentationID).
			WarnContext(ctx, "vote count unavailable", "error", err, "error_kind", ErrorKind(err))
		return 0
	}
	return count
}

// Stats loads both aggregates and fails if either call fails.
func (s *VoteService) Stats(ctx context.Context, presentationID int64) (PresentationStats, error) {
	average, avgErr := s.average(ctx, presentationID)
	count, countErr := s.count(ctx, presentationID)
	if err := errors.Join(avgErr, countErr); err != nil {
		return PresentationStats{}, err
	}
	return PresentationStats{Average: average, Count: count}, nil
}

func (s *VoteService) average(ctx context.Context, presentationID int64) (float64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	var dto averageDTO
	if err := getJSON(ctx, s.backend, idPath("/votes/presentation/%s/average", presentationID), nil, &dto); err != nil {
		return 0, remoteError("vote average", err)
	}
	return dto.Average, nil
}

func (s *VoteService) count(ctx context.Context, presentationID int64) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	var dto countDTO
	if err := getJSON(ctx, s.backend, idPath("/votes/presentation/%s/count", presentationID), nil, &dto); err != nil {
		return 0, remoteError("vote count", err)
	}
	return dto.Count, nil
}
