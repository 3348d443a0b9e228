package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sportconnect-go/internal/coach"
	"sportconnect-go/internal/config"
	"sportconnect-go/internal/model"
	"sportconnect-go/internal/repository"
	"sportconnect-go/pkg/llm"
	"sportconnect-go/pkg/tasks"
)

var errStore = errors.New("store down")

type fakeAnswerer struct {
	answer    string
	err       error
	calls     int
	questions []string
	langs     []string
	histories [][]model.ChatMessage
	ctxErrs   []error
}

func (f *fakeAnswerer) Ask(ctx context.Context, question, lang string, history []model.ChatMessage) (string, error) {
	f.calls++
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.questions = append(f.questions, question)
	f.langs = append(f.langs, lang)
	f.histories = append(f.histories, history)
	return f.answer, f.err
}

type failingProfiles struct{}

func (failingProfiles) FindByID(context.Context, string) (*model.Profile, error) { return nil, errStore }
func (failingProfiles) Save(context.Context, *model.Profile) error            { return errStore }

type failingRecos struct{}

func (failingRecos) Create(context.Context, *model.Recommendation) error { return errStore }
func (failingRecos) ListByUser(context.Context, string) ([]model.Recommendation, error) {
	return nil, errStore
}
func (failingRecos) Latest(context.Context, string) (*model.Recommendation, error) {
	return nil, errStore
}

var _ repository.RecommendationRepository = failingRecos{}

type fakeDispatcher struct {
	err   error
	tasks []tasks.ReportTask
}

func (f *fakeDispatcher) Dispatch(_ context.Context, task tasks.ReportTask) error {
	f.tasks = append(f.tasks, task)
	return f.err
}

type failingConversations struct{}

func (failingConversations) GetConversationHistory(context.Context, string) ([]model.ChatMessage, error) {
	return nil, errStore
}
func (failingConversations) AddMessagesToConversation(context.Context, string, ...model.ChatMessage) error {
	return errStore
}

// newModelGateway 返回一个指向本地 httptest 服务的真实模型网关，服务固定回答 answer。
func newModelGateway(t *testing.T, answer string) *coach.Gateway {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": answer}}},
		})
	}))
	t.Cleanup(srv.Close)
	client := llm.NewClient(config.LLMConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model", TimeoutSeconds: 5})
	return coach.NewGateway(client, "", nil)
}

func cancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func intPtr(v int) *int             { return &v }
func floatPtr(v float64) *float64 { return &v }
