package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"testdesk/internal/app/apiresp"
	"testdesk/internal/document"

	"github.com/go-chi/chi/v5"
)

const defaultMaxUploadBytes = 8 << 20

type Handler struct {
	svc            ingestService
	maxUploadBytes int64
}

type ingestService interface {
	Categories() []string
	Preview(ctx context.Context, in ImportInput) (*Preview, error)
	CreateTest(ctx context.Context, in CreateTestInput) (*ImportRecord, error)
	ListImports(ctx context.Context, limit int) ([]ImportRecord, error)
	GetImport(ctx context.Context, id string) (*ImportRecord, error)
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type previewRequest struct {
	Text string `json:"text"`
}

type createTestRequest struct {
	TestName      string `json:"testName"`
	CategoryName  string `json:"categoryName"`
	QuestionsText string `json:"questionsText"`
}

var (
	errFileTooLarge = errors.New("uploaded file is too large")
	errBodyTooLarge = errors.New("request body is too large")
	errInvalidBody  = errors.New("invalid request body")
)

func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: h.svc.Categories()})
}

// Preview accepts either JSON {"text": ...} or a multipart form with a file
// field (or a text field).
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var in ImportInput
	if isMultipart(r) {
		form, err := h.readUpload(w, r)
		if err != nil {
			writeUploadError(w, r, err)
			return
		}
		in = form.input
	} else {
		var req previewRequest
		if err := h.decodeJSON(w, r, &req); err != nil {
			writeUploadError(w, r, err)
			return
		}
		in.Text = req.Text
	}

	preview, err := h.svc.Preview(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: preview})
}

func (h *Handler) CreateTest(w http.ResponseWriter, r *http.Request) {
	var req createTestRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeUploadError(w, r, err)
		return
	}

	rec, err := h.svc.CreateTest(r.Context(), CreateTestInput{
		TestName:     req.TestName,
		CategoryName: req.CategoryName,
		ImportInput:  ImportInput{Text: req.QuestionsText},
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, apiResponse{OK: true, Data: rec})
}

func (h *Handler) UploadTest(w http.ResponseWriter, r *http.Request) {
	form, err := h.readUpload(w, r)
	if err != nil {
		writeUploadError(w, r, err)
		return
	}

	rec, err := h.svc.CreateTest(r.Context(), CreateTestInput{
		TestName:     form.testName,
		CategoryName: form.categoryName,
		ImportInput:  form.input,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, apiResponse{OK: true, Data: rec})
}

func (h *Handler) ListImports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	items, err := h.svc.ListImports(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) GetImport(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetImport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: rec})
}

// decodeJSON reads a JSON body capped at the upload limit.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit())
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return errBodyTooLarge
		}
		return errInvalidBody
	}
	return nil
}

func (h *Handler) uploadLimit() int64 {
	if h.maxUploadBytes <= 0 {
		return defaultMaxUploadBytes
	}
	return h.maxUploadBytes
}

type uploadForm struct {
	testName     string
	categoryName string
	input        ImportInput
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*uploadForm, error) {
	limit := h.uploadLimit()
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, errFileTooLarge
		}
		return nil, errors.New("invalid multipart form")
	}

	form := &uploadForm{
		testName:     r.FormValue("testName"),
		categoryName: r.FormValue("categoryName"),
		input:        ImportInput{Text: r.FormValue("text")},
	}

	file, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return nil, errors.New("invalid file field")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, errors.New("failed to read uploaded file")
	}
	if int64(len(data)) > limit {
		return nil, errFileTooLarge
	}
	form.input.FileName = hdr.Filename
	form.input.FileData = data
	return form, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

func writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errFileTooLarge) || errors.Is(err, errBodyTooLarge) {
		writeJSON(w, r, http.StatusRequestEntityTooLarge, apiResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownCategory):
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, document.ErrUnsupportedFormat):
		writeJSON(w, r, http.StatusUnsupportedMediaType, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, document.ErrMalformedDocument), errors.Is(err, ErrNoValidQuestions):
		writeJSON(w, r, http.StatusUnprocessableEntity, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrImportNotFound):
		writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrUpstream):
		writeJSON(w, r, http.StatusBadGateway, apiResponse{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload apiResponse) {
	apiresp.Write(w, r, code, payload.OK, payload.Data, payload.Error)
}
