package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"testdesk/internal/document"
	"testdesk/internal/questiondoc"
	"testdesk/internal/testapi"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrNoValidQuestions = errors.New("no valid questions found")
	ErrImportNotFound   = errors.New("import not found")
	ErrUpstream         = errors.New("test api submission failed")
)

const (
	errFillAllFields = "please fill all fields including category"
	defaultListLimit = 50
	maxListLimit     = 200
)

type Store interface {
	Save(ctx context.Context, rec *ImportRecord) error
	List(ctx context.Context, limit int) ([]ImportRecord, error)
	Get(ctx context.Context, id string) (*ImportRecord, error)
}

type Submitter interface {
	CreateTest(ctx context.Context, in testapi.CreateTestRequest) (*testapi.CreateTestResponse, error)
}

// Observer receives the outcome of every CreateTest call.
type Observer interface {
	ObserveImport(status string, accepted int, skipped map[string]int)
}

type ServiceConfig struct {
	Parser     *questiondoc.Parser
	Categories []string
	Store      Store
	Client     Submitter
	Observer   Observer
	Now        func() time.Time
}

type Service struct {
	parser     *questiondoc.Parser
	categories []string
	store      Store
	client     Submitter
	observer   Observer
	now        func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	parser := cfg.Parser
	if parser == nil {
		parser = questiondoc.New(questiondoc.DefaultConfig())
	}
	categories := cfg.Categories
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		parser:     parser,
		categories: categories,
		store:      cfg.Store,
		client:     cfg.Client,
		observer:   cfg.Observer,
		now:        now,
	}
}

func (s *Service) Categories() []string {
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// Preview parses a document without side effects.
func (s *Service) Preview(ctx context.Context, in ImportInput) (*Preview, error) {
	doc, err := s.load(in)
	if err != nil {
		return nil, err
	}
	out := s.process(doc)
	return &Preview{
		SourceName:    doc.Name,
		SourceFormat:  string(doc.Kind),
		AcceptedCount: len(out.Accepted),
		SkippedCount:  len(out.Skipped),
		Outcome:       out,
	}, nil
}

// CreateTest parses the document, submits the normalized questions to the
// test API once and records the attempt. The returned record is non-nil
// whenever the attempt got as far as parsing.
func (s *Service) CreateTest(ctx context.Context, in CreateTestInput) (*ImportRecord, error) {
	name := strings.TrimSpace(in.TestName)
	category := strings.TrimSpace(in.CategoryName)
	if name == "" || category == "" || (!in.hasFile() && strings.TrimSpace(in.Text) == "") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, errFillAllFields)
	}
	category, ok := s.canonicalCategory(category)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, strings.TrimSpace(in.CategoryName))
	}
	if s.client == nil {
		return nil, fmt.Errorf("%w: test api client is not configured", ErrUpstream)
	}

	doc, err := s.load(in.ImportInput)
	if err != nil {
		return nil, err
	}
	out := s.process(doc)

	rec := &ImportRecord{
		ID:            uuid.NewString(),
		TestName:      name,
		CategoryName:  category,
		SourceName:    doc.Name,
		SourceFormat:  string(doc.Kind),
		ParsedCount:   len(out.Accepted),
		SkippedCount:  len(out.Skipped),
		QuestionsText: out.Text,
		Skipped:       out.Skipped,
		CreatedAt:     s.now().UTC(),
	}

	if out.Text == "" {
		rec.Status = StatusRejected
		rec.ErrorMessage = ErrNoValidQuestions.Error()
		s.record(ctx, rec)
		return rec, ErrNoValidQuestions
	}

	resp, err := s.client.CreateTest(ctx, testapi.CreateTestRequest{
		TestName:      name,
		CategoryName:  category,
		QuestionsText: out.Text,
	})
	if err != nil {
		rec.Status = StatusFailed
		rec.ErrorMessage = err.Error()
		s.record(ctx, rec)
		return rec, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	rec.Status = StatusSubmitted
	rec.SubmittedCount = len(out.Selected)
	rec.RemoteResponse = resp.Body
	s.record(ctx, rec)
	return rec, nil
}

func (s *Service) ListImports(ctx context.Context, limit int) ([]ImportRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if s.store == nil {
		return []ImportRecord{}, nil
	}
	return s.store.List(ctx, limit)
}

func (s *Service) GetImport(ctx context.Context, id string) (*ImportRecord, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil || s.store == nil {
		return nil, ErrImportNotFound
	}
	return s.store.Get(ctx, strings.TrimSpace(id))
}

func (s *Service) load(in ImportInput) (*document.Document, error) {
	if in.hasFile() {
		if len(in.FileData) == 0 {
			return nil, fmt.Errorf("%w: uploaded file is empty", ErrInvalidInput)
		}
		return document.Read(in.FileName, in.FileData)
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, errFillAllFields)
	}
	return document.FromText(in.Text), nil
}

func (s *Service) process(doc *document.Document) questiondoc.Outcome {
	if doc.Structured() {
		return s.parser.Finish(s.parser.Collect(doc.Units))
	}
	return s.parser.Process(doc.Text)
}

func (s *Service) canonicalCategory(name string) (string, bool) {
	for _, c := range s.categories {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// record stores and reports an attempt. Storage failures are only logged.
func (s *Service) record(ctx context.Context, rec *ImportRecord) {
	if s.store != nil {
		if err := s.store.Save(ctx, rec); err != nil {
			log.Printf("import %s: save history: %v", rec.ID, err)
		}
	}
	if s.observer != nil {
		skipped := make(map[string]int)
		for _, sk := range rec.Skipped {
			skipped[string(sk.Reason)]++
		}
		s.observer.ObserveImport(rec.Status, rec.ParsedCount, skipped)
	}
}
