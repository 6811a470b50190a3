package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testdesk/internal/db"
	"testdesk/internal/document"
	"testdesk/internal/questiondoc"
	"testdesk/internal/testapi"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []testapi.CreateTestRequest
	err   error
}

func (f *fakeSubmitter) CreateTest(ctx context.Context, in testapi.CreateTestRequest) (*testapi.CreateTestResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	return &testapi.CreateTestResponse{StatusCode: 201, Body: "Test created successfully"}, nil
}

type observed struct {
	status   string
	accepted int
	skipped  map[string]int
}

type fakeObserver struct {
	got []observed
}

func (f *fakeObserver) ObserveImport(status string, accepted int, skipped map[string]int) {
	f.got = append(f.got, observed{status, accepted, skipped})
}

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.Open(context.Background(), db.Config{
		Driver: db.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewSQLStore(conn)
}

func fixedClock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}

func newTestService(t *testing.T, sub *fakeSubmitter, obs *fakeObserver, quota int) (*Service, *SQLStore) {
	t.Helper()
	store := newTestStore(t)
	cfg := ServiceConfig{
		Parser: questiondoc.New(questiondoc.Config{Quota: quota, Rand: questiondoc.NewRand(3)}),
		Store:  store,
		Client: sub,
		Now:    fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
	}
	if obs != nil {
		cfg.Observer = obs
	}
	return NewService(cfg), store
}

const sampleText = "What is 2+2? (2, 3, 4, 5) [4]\nBad line with no brackets\nWho is CEO of Tesla? (Jeff, Elon, Bill, Mark) [Elon]"

func TestServiceCreateTestSubmitsNormalizedText(t *testing.T) {
	sub := &fakeSubmitter{}
	obs := &fakeObserver{}
	svc, store := newTestService(t, sub, obs, questiondoc.DefaultQuota)

	rec, err := svc.CreateTest(context.Background(), CreateTestInput{
		TestName:     " Weekly quiz ",
		CategoryName: "math",
		ImportInput:  ImportInput{Text: sampleText},
	})
	require.NoError(t, err)

	require.Len(t, sub.calls, 1)
	assert.Equal(t, testapi.CreateTestRequest{
		TestName:      "Weekly quiz",
		CategoryName:  "Math",
		QuestionsText: "What is 2+2?(2,3,4,5)[4]\nWho is CEO of Tesla?(Jeff,Elon,Bill,Mark)[Elon]",
	}, sub.calls[0])

	assert.Equal(t, StatusSubmitted, rec.Status)
	assert.Equal(t, 2, rec.ParsedCount)
	assert.Equal(t, 1, rec.SkippedCount)
	assert.Equal(t, 2, rec.SubmittedCount)
	assert.Equal(t, "Test created successfully", rec.RemoteResponse)

	stored, err := store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.QuestionsText, stored.QuestionsText)
	assert.Equal(t, rec.CreatedAt, stored.CreatedAt)
	require.Len(t, stored.Skipped, 1)
	assert.Equal(t, questiondoc.ReasonUnrecognized, stored.Skipped[0].Reason)
	assert.Equal(t, 2, stored.Skipped[0].Line)

	require.Len(t, obs.got, 1)
	assert.Equal(t, observed{StatusSubmitted, 2, map[string]int{"unrecognized": 1}}, obs.got[0])
}

func TestServiceCreateTestValidation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateTestInput
		want error
	}{
		{"missing name", CreateTestInput{CategoryName: "Math", ImportInput: ImportInput{Text: sampleText}}, ErrInvalidInput},
		{"missing category", CreateTestInput{TestName: "t", ImportInput: ImportInput{Text: sampleText}}, ErrInvalidInput},
		{"blank text", CreateTestInput{TestName: "t", CategoryName: "Math", ImportInput: ImportInput{Text: "  \n "}}, ErrInvalidInput},
		{"unknown category", CreateTestInput{TestName: "t", CategoryName: "Art", ImportInput: ImportInput{Text: sampleText}}, ErrUnknownCategory},
		{"empty upload", CreateTestInput{TestName: "t", CategoryName: "Math", ImportInput: ImportInput{FileName: "q.txt"}}, ErrInvalidInput},
		{"unsupported upload", CreateTestInput{TestName: "t", CategoryName: "Math", ImportInput: ImportInput{FileName: "q.pdf", FileData: []byte("%PDF")}}, document.ErrUnsupportedFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := &fakeSubmitter{}
			svc, _ := newTestService(t, sub, nil, questiondoc.DefaultQuota)

			rec, err := svc.CreateTest(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, rec)
			assert.Empty(t, sub.calls)
		})
	}
}

func TestServiceCreateTestNoValidQuestions(t *testing.T) {
	sub := &fakeSubmitter{}
	obs := &fakeObserver{}
	svc, store := newTestService(t, sub, obs, questiondoc.DefaultQuota)

	rec, err := svc.CreateTest(context.Background(), CreateTestInput{
		TestName:     "t",
		CategoryName: "Coding",
		ImportInput:  ImportInput{Text: "nothing here\nT (a, b) [a]"},
	})
	require.ErrorIs(t, err, ErrNoValidQuestions)
	assert.Empty(t, sub.calls)
	require.NotNil(t, rec)
	assert.Equal(t, StatusRejected, rec.Status)

	stored, err := store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, stored.Status)
	assert.Len(t, stored.Skipped, 2)
	assert.Equal(t, map[string]int{"unrecognized": 1, "option_count": 1}, obs.got[0].skipped)
}

func TestServiceCreateTestUpstreamFailure(t *testing.T) {
	sub := &fakeSubmitter{err: &testapi.StatusError{StatusCode: 500, Body: "db down"}}
	svc, store := newTestService(t, sub, nil, questiondoc.DefaultQuota)

	rec, err := svc.CreateTest(context.Background(), CreateTestInput{
		TestName:     "t",
		CategoryName: "Aptitude",
		ImportInput:  ImportInput{Text: sampleText},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.True(t, errors.Is(err, testapi.ErrUpstream))
	assert.Len(t, sub.calls, 1)

	stored, err := store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "db down")
	assert.Equal(t, 0, stored.SubmittedCount)
}

func TestServiceCreateTestAppliesQuota(t *testing.T) {
	lines := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("Q%d (a, b, c, d) [b]", i))
	}
	sub := &fakeSubmitter{}
	svc, _ := newTestService(t, sub, nil, questiondoc.DefaultQuota)

	rec, err := svc.CreateTest(context.Background(), CreateTestInput{
		TestName:     "t",
		CategoryName: "Math",
		ImportInput:  ImportInput{Text: strings.Join(lines, "\r\n")},
	})
	require.NoError(t, err)
	assert.Equal(t, 30, rec.ParsedCount)
	assert.Equal(t, questiondoc.DefaultQuota, rec.SubmittedCount)
	assert.Len(t, strings.Split(sub.calls[0].QuestionsText, "\n"), questiondoc.DefaultQuota)
}

func TestServicePreviewStructuredUpload(t *testing.T) {
	svc, _ := newTestService(t, &fakeSubmitter{}, nil, questiondoc.DefaultQuota)
	bank := `{"questions":[
{"text":"Largest planet?","options":["Mars","Jupiter","Earth","Venus"],"answer":"B"},
{"text":"Broken","options":["a","b"],"answer":"a"}]}`

	p, err := svc.Preview(context.Background(), ImportInput{FileName: "bank.json", FileData: []byte(bank)})
	require.NoError(t, err)
	assert.Equal(t, "bank.json", p.SourceName)
	assert.Equal(t, "json", p.SourceFormat)
	assert.Equal(t, 1, p.AcceptedCount)
	assert.Equal(t, 1, p.SkippedCount)
	assert.Equal(t, "Largest planet?(Mars,Jupiter,Earth,Venus)[Jupiter]", p.Text)
	assert.Equal(t, questiondoc.ReasonOptionCount, p.Skipped[0].Reason)
}

func TestServicePreviewText(t *testing.T) {
	svc, _ := newTestService(t, &fakeSubmitter{}, nil, questiondoc.DefaultQuota)

	p, err := svc.Preview(context.Background(), ImportInput{Text: sampleText})
	require.NoError(t, err)
	assert.Equal(t, "pasted", p.SourceName)
	assert.Equal(t, 2, p.AcceptedCount)
	assert.Len(t, p.Selected, 2)

	_, err = svc.Preview(context.Background(), ImportInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestServiceListAndGetImports(t *testing.T) {
	sub := &fakeSubmitter{}
	svc, _ := newTestService(t, sub, nil, questiondoc.DefaultQuota)

	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := svc.CreateTest(context.Background(), CreateTestInput{
			TestName:     fmt.Sprintf("test-%d", i),
			CategoryName: "Behavioral",
			ImportInput:  ImportInput{Text: sampleText},
		})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	items, err := svc.ListImports(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, ids[2], items[0].ID, "newest first")
	assert.Equal(t, ids[1], items[1].ID)

	got, err := svc.GetImport(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, "test-0", got.TestName)

	_, err = svc.GetImport(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrImportNotFound)
	_, err = svc.GetImport(context.Background(), "0b6f0e5e-8c55-4f5e-9a57-111111111111")
	assert.ErrorIs(t, err, ErrImportNotFound)
}

func TestServiceWithoutStore(t *testing.T) {
	sub := &fakeSubmitter{}
	svc := NewService(ServiceConfig{Client: sub})

	rec, err := svc.CreateTest(context.Background(), CreateTestInput{
		TestName:     "t",
		CategoryName: "Coding",
		ImportInput:  ImportInput{Text: sampleText},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, rec.Status)

	items, err := svc.ListImports(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, DefaultCategories, svc.Categories())
}
