package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/example/plateforme-admin/internal/apiclient"
	"github.com/example/plateforme-admin/internal/application"
)

const maxUploadBytes = 32 << 20

type presentationService interface {
	List(ctx context.Context) ([]application.Presentation, error)
	Mine(ctx context.Context) ([]application.Presentation, error)
	Get(ctx context.Context, id int64) (application.Presentation, error)
	Create(ctx context.Context, input application.PresentationInput) (application.Presentation, error)
	Update(ctx context.Context, id int64, input application.PresentationInput) (application.Presentation, error)
	Delete(ctx context.Context, id int64) error
	WithStats(ctx context.Context, presentations []application.Presentation) []application.PresentationWithStats
	FileURLs(p application.Presentation) []string
}

type commentService interface {
	Add(ctx context.Context, presentationID int64, content string) (application.Comment, error)
	ForPresentation(ctx context.Context, presentationID int64) ([]application.Comment, error)
	Update(ctx context.Context, commentID int64, content string) (application.Comment, error)
	Delete(ctx context.Context, commentID int64) error
}

type voteService interface {
	Cast(ctx context.Context, presentationID int64, rating int) (application.Vote, error)
	ForPresentation(ctx context.Context, presentationID int64) ([]application.Vote, error)
	Mine(ctx context.Context, presentationID int64) (application.Vote, bool, error)
	Delete(ctx context.Context, voteID int64) error
}

// PresentationServices groups the services behind PresentationHandler.
type PresentationServices struct {
	Presentations presentationService
	Comments      commentService
	Votes         voteService
}

// PresentationHandler serves the presentation list and detail pages along
// with their comments and votes.
type PresentationHandler struct {
	presentations presentationService
	comments      commentService
	votes         voteService
	responder     responder
	logger        *slog.Logger
}

// NewPresentationHandler constructs a PresentationHandler.
func NewPresentationHandler(services PresentationServices, logger *slog.Logger) *PresentationHandler {
	logger = defaultLogger(logger)
	return &PresentationHandler{
		presentations: services.Presentations,
		comments:      services.Comments,
		votes:         services.Votes,
		responder:     newResponder(logger),
		logger:        logger,
	}
}

func (h *PresentationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "PresentationHandler", operation, attrs...)
}

func (h *PresentationHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h == nil || h.presentations == nil || h.comments == nil || h.votes == nil {
		newResponder(nil).writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return false
	}
	return true
}

type presentationListResponse struct {
	Presentations []application.PresentationWithStats `json:"presentations"`
	Groups        []application.StatusGroup           `json:"groups"`
}

// List returns presentations with their vote aggregates; ?mine=true keeps the
// signed-in user's own.
func (h *PresentationHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()

	var (
		presentations []application.Presentation
		err           error
	)
	if queryFlag(r, "mine") {
		presentations, err = h.presentations.Mine(ctx)
	} else {
		presentations, err = h.presentations.List(ctx)
	}
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, presentationListResponse{
		Presentations: h.presentations.WithStats(ctx, presentations),
		Groups:        application.GroupByStatus(presentations),
	})
}

type presentationDetail struct {
	Presentation application.PresentationWithStats `json:"presentation"`
	FileURLs     []string                          `json:"fileUrls"`
	Comments     []application.Comment             `json:"comments"`
	Votes        []application.Vote                `json:"votes"`
	MyVote       *application.Vote                 `json:"myVote"`
}

// Detail renders one presentation with its attachments, comments and votes.
func (h *PresentationHandler) Detail(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	presentation, err := h.presentations.Get(ctx, id)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	detail := presentationDetail{FileURLs: h.presentations.FileURLs(presentation)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		enriched := h.presentations.WithStats(gctx, []application.Presentation{presentation})
		detail.Presentation = enriched[0]
		return nil
	})
	g.Go(func() error {
		comments, err := h.comments.ForPresentation(gctx, id)
		detail.Comments = comments
		return err
	})
	g.Go(func() error {
		votes, err := h.votes.ForPresentation(gctx, id)
		detail.Votes = votes
		return err
	})
	g.Go(func() error {
		vote, found, err := h.votes.Mine(gctx, id)
		if found {
			detail.MyVote = &vote
		}
		return err
	})
	if err := g.Wait(); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	if detail.Comments == nil {
		detail.Comments = []application.Comment{}
	}
	if detail.Votes == nil {
		detail.Votes = []application.Vote{}
	}
	h.responder.success(ctx, w, http.StatusOK, detail)
}

// Create accepts a multipart form (attachments under "fichiers") or a JSON
// body without attachments.
func (h *PresentationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()

	input, err := readPresentationInput(r)
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	presentation, err := h.presentations.Create(ctx, input)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.log(ctx, "Create", "presentation_id", presentation.ID, "files", len(input.Files)).InfoContext(ctx, "presentation created")
	h.responder.success(ctx, w, http.StatusCreated, presentation)
}

func (h *PresentationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	input, err := readPresentationInput(r)
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	presentation, err := h.presentations.Update(ctx, id, input)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, presentation)
}

func (h *PresentationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	if err := h.presentations.Delete(ctx, id); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.log(ctx, "Delete", "presentation_id", id).InfoContext(ctx, "presentation deleted")
	w.WriteHeader(http.StatusNoContent)
}

type commentRequest struct {
	Content string `json:"contenu"`
}

func (h *PresentationHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	comment, err := h.comments.Add(ctx, id, req.Content)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusCreated, comment)
}

func (h *PresentationHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	comment, err := h.comments.Update(ctx, id, req.Content)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusOK, comment)
}

func (h *PresentationHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	if err := h.comments.Delete(ctx, id); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type voteRequest struct {
	Rating int `json:"note"`
}

func (h *PresentationHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	vote, err := h.votes.Cast(ctx, id, req.Rating)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.success(ctx, w, http.StatusCreated, vote)
}

func (h *PresentationHandler) DeleteVote(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	if err := h.votes.Delete(ctx, id); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readPresentationInput reads the create and update forms. A missing owner
// defaults to the signed-in user.
func readPresentationInput(r *http.Request) (application.PresentationInput, error) {
	var input application.PresentationInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return input, errBadRequestBody
		}
		form := r.MultipartForm
		value := func(name string) string {
			if values := form.Value[name]; len(values) > 0 {
				return values[0]
			}
			return ""
		}
		if owner := strings.TrimSpace(value("idUtilisateur")); owner != "" {
			id, err := strconv.ParseInt(owner, 10, 64)
			if err != nil {
				return input, errBadRequestBody
			}
			input.OwnerID = id
		}
		input.Date = value("datePresentation")
		input.Start = value("heureDebut")
		input.End = value("heureFin")
		input.Subject = value("sujet")
		input.Status = application.Status(value("statut"))
		input.Description = value("description")

		files, err := readFiles(form.File[application.FilesField])
		if err != nil {
			return input, err
		}
		input.Files = files
	} else if err := decodeJSON(r, &input); err != nil {
		return input, err
	}

	if input.OwnerID == 0 {
		if record, ok := SessionFromContext(r.Context()); ok {
			if id, err := strconv.ParseInt(record.UserID, 10, 64); err == nil {
				input.OwnerID = id
			}
		}
	}
	return input, nil
}

func readFiles(headers []*multipart.FileHeader) ([]apiclient.File, error) {
	files := make([]apiclient.File, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %q: %w", header.Filename, err)
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %q: %w", header.Filename, err)
		}
		files = append(files, apiclient.File{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
		})
	}
	return files, nil
}
