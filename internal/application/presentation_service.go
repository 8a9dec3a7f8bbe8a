package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/example/plateforme-admin/internal/apiclient"
	"github.com/example/plateforme-admin/internal/scheduler"
)

// FilesField is the multipart field shared by every attachment.
const FilesField = "fichiers"

// DefaultStatsConcurrency bounds concurrent stats calls when none is configured.
const DefaultStatsConcurrency = 4

// StatsSource loads the vote aggregates of a presentation. *VoteService
// satisfies it.
type StatsSource interface {
	Stats(ctx context.Context, presentationID int64) (PresentationStats, error)
}

// PresentationService manages presentations on the backend.
type PresentationService struct {
	backend     Backend
	stats       StatsSource
	uploadsBase string
	concurrency int
	logger      *slog.Logger
}

// PresentationOptions configures NewPresentationService.
type PresentationOptions struct {
	Stats            StatsSource
	UploadsBaseURL   string
	StatsConcurrency int
	Logger           *slog.Logger
}

// NewPresentationService constructs a presentation service over backend.
func NewPresentationService(backend Backend, opts PresentationOptions) *PresentationService {
	if opts.StatsConcurrency <= 0 {
		opts.StatsConcurrency = DefaultStatsConcurrency
	}
	return &PresentationService{
		backend:     backend,
		stats:       opts.Stats,
		uploadsBase: opts.UploadsBaseURL,
		concurrency: opts.StatsConcurrency,
		logger:      defaultLogger(opts.Logger),
	}
}

func (s *PresentationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PresentationService", operation, attrs...)
}

func (s *PresentationService) ready() error {
	if s == nil || s.backend == nil {
		return fmt.Errorf("PresentationService is not configured")
	}
	return nil
}

// List returns every presentation.
func (s *PresentationService) List(ctx context.Context) ([]Presentation, error) {
	return s.list(ctx, "List", "/presentations/all", nil)
}

// Mine returns the presentations owned by the signed-in user.
func (s *PresentationService) Mine(ctx context.Context) ([]Presentation, error) {
	return s.list(ctx, "Mine", "/presentations/my", nil)
}

// Search returns the presentations matching term. A blank term lists all.
func (s *PresentationService) Search(ctx context.Context, term string) ([]Presentation, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx)
	}
	return s.list(ctx, "Search", "/presentations/search", url.Values{"term": {term}})
}

func (s *PresentationService) list(ctx context.Context, operation, path string, query url.Values) (presentations []Presentation, err error) {
	if err = s.ready(); err != nil {
		return nil, err
	}
	logger := s.loggerWith(ctx, operation)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load presentations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "presentations loaded", "count", len(presentations))
	}()

	var dtos []presentationDTO
	if err = getJSON(ctx, s.backend, path, query, &dtos); err != nil {
		err = remoteError(strings.ToLower(operation)+" presentations", err)
		return nil, err
	}
	return toPresentations(dtos), nil
}

// Get returns one presentation.
func (s *PresentationService) Get(ctx context.Context, id int64) (presentation Presentation, err error) {
	if err = s.ready(); err != nil {
		return Presentation{}, err
	}
	logger := s.loggerWith(ctx, "Get", "presentation_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load presentation", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var dto presentationDTO
	if err = getJSON(ctx, s.backend, idPath("/presentations/%s", id), nil, &dto); err != nil {
		err = remoteError("get presentation", err)
		return Presentation{}, err
	}
	return toPresentation(dto), nil
}

// Create validates input and uploads a new presentation with its files.
func (s *PresentationService) Create(ctx context.Context, input PresentationInput) (presentation Presentation, err error) {
	if err = s.ready(); err != nil {
		return Presentation{}, err
	}
	logger := s.loggerWith(ctx, "Create", "files", len(input.Files))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create presentation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("presentation_id", presentation.ID).InfoContext(ctx, "presentation created")
	}()

	if vErr := validatePresentationInput(input); vErr.HasErrors() {
		err = vErr
		return Presentation{}, err
	}

	var dto presentationDTO
	if err = sendForm(ctx, s.backend, http.MethodPost, "/presentations/create", presentationForm(input), &dto); err != nil {
		err = remoteError("create presentation", err)
		return Presentation{}, err
	}
	return toPresentation(dto), nil
}

// Update validates input and replaces the presentation. Files are appended
// by the backend.
func (s *PresentationService) Update(ctx context.Context, id int64, input PresentationInput) (presentation Presentation, err error) {
	if err = s.ready(); err != nil {
		return Presentation{}, err
	}
	logger := s.loggerWith(ctx, "Update", "presentation_id", id, "files", len(input.Files))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update presentation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "presentation updated")
	}()

	if vErr := validatePresentationInput(input); vErr.HasErrors() {
		err = vErr
		return Presentation{}, err
	}

	var dto presentationDTO
	if err = sendForm(ctx, s.backend, http.MethodPut, idPath("/presentations/%s", id), presentationForm(input), &dto); err != nil {
		err = remoteError("update presentation", err)
		return Presentation{}, err
	}
	return toPresentation(dto), nil
}

// Delete removes a presentation.
func (s *PresentationService) Delete(ctx context.Context, id int64) (err error) {
	if err = s.ready(); err != nil {
		return err
	}
	logger := s.loggerWith(ctx, "Delete", "presentation_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete presentation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "presentation deleted")
	}()

	if err = deleteResource(ctx, s.backend, idPath("/presentations/%s", id)); err != nil {
		err = remoteError("delete presentation", err)
	}
	return err
}

// WithStats loads the vote aggregates of every presentation concurrently.
// A failed lookup yields zeroed stats with Placeholder set; the call itself
// never fails because of enrichment.
func (s *PresentationService) WithStats(ctx context.Context, presentations []Presentation) []PresentationWithStats {
	out := make([]PresentationWithStats, len(presentations))
	for i, p := range presentations {
		out[i] = PresentationWithStats{Presentation: p}
	}
	if s == nil || s.stats == nil || len(presentations) == 0 {
		for i := range out {
			out[i].Placeholder = true
		}
		return out
	}

	logger := s.loggerWith(ctx, "WithStats", "count", len(presentations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range out {
		i := i
		g.Go(func() error {
			stats, err := s.stats.Stats(gctx, out[i].ID)
			if err != nil {
				logger.WarnContext(ctx, "using placeholder stats",
					"presentation_id", out[i].ID, "error", err, "error_kind", ErrorKind(err))
				out[i].Placeholder = true
				return nil
			}
			out[i].Stats = stats
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// FileURLs returns the download address of each attachment.
func (s *PresentationService) FileURLs(p Presentation) []string {
	base := ""
	if s != nil {
		base = s.uploadsBase
	}
	urls := make([]string, 0, len(p.Files))
	for _, name := range p.Files {
		urls = append(urls, FileURL(base, name))
	}
	return urls
}

// Calendar projects presentations onto calendar events, ordered by start.
func Calendar(presentations []Presentation) []CalendarEvent {
	events := make([]CalendarEvent, 0, len(presentations))
	for _, p := range presentations {
		start, end := p.Start, p.End
		if start.IsZero() {
			start = p.Date
		}
		if end.IsZero() {
			end = start
		}
		events = append(events, CalendarEvent{
			ID:          p.ID,
			Title:       p.Subject,
			Start:       start,
			End:         end,
			Description: p.Description,
			Status:      p.Status,
			Owner:       p.Owner,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	markConflicts(events)
	return events
}

// markConflicts flags overlapping events. Cancelled presentations free their slot.
func markConflicts(events []CalendarEvent) {
	slots := make([]scheduler.Slot, 0, len(events))
	for _, e := range events {
		if e.Status == StatusCancelled {
			continue
		}
		slots = append(slots, scheduler.Slot{ID: e.ID, OwnerID: e.Owner.ID, Start: e.Start, End: e.End})
	}
	for i := range events {
		if events[i].Status == StatusCancelled {
			continue
		}
		candidate := scheduler.Slot{ID: events[i].ID, OwnerID: events[i].Owner.ID, Start: events[i].Start, End: events[i].End}
		for _, c := range scheduler.DetectConflicts(slots, candidate) {
			events[i].Conflicts = append(events[i].Conflicts, c.WithID)
			if c.Type == scheduler.ConflictTypeOwner {
				events[i].DoubleBooked = true
			}
		}
	}
}

// GroupByStatus buckets presentations by status in display order. Statuses
// outside the four labels are grouped after them in first-seen order.
func GroupByStatus(presentations []Presentation) []StatusGroup {
	groups := make([]StatusGroup, 0, 4)
	index := make(map[Status]int, 4)
	for _, status := range Statuses() {
		index[status] = len(groups)
		groups = append(groups, StatusGroup{Status: status, Presentations: []Presentation{}})
	}
	for _, p := range presentations {
		i, ok := index[p.Status]
		if !ok {
			i = len(groups)
			index[p.Status] = i
			groups = append(groups, StatusGroup{Status: p.Status, Presentations: []Presentation{}})
		}
		groups[i].Presentations = append(groups[i].Presentations, p)
	}
	return groups
}

func presentationForm(input PresentationInput) *apiclient.Multipart {
	form := apiclient.NewMultipart(FilesField).
		AddField("idUtilisateur", strconv.FormatInt(input.OwnerID, 10)).
		AddField("datePresentation", strings.TrimSpace(input.Date)).
		AddField("heureDebut", strings.TrimSpace(input.Start)).
		AddField("heureFin", strings.TrimSpace(input.End)).
		AddField("sujet", strings.TrimSpace(input.Subject)).
		AddField("statut", StatusToBackend(input.Status))
	if description := strings.TrimSpace(input.Description); description != "" {
		form.AddField("description", description)
	}
	for _, file := range input.Files {
		form.AddFile(file)
	}
	return form
}
