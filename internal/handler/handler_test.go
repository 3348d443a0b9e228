package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"sportconnect-go/internal/middleware"
	"sportconnect-go/internal/model"
	"sportconnect-go/internal/service"
	"sportconnect-go/pkg/mailer"
	"sportconnect-go/pkg/token"
)

type fakeChat struct {
	reqs []service.AskRequest
}

func (f *fakeChat) Ask(_ context.Context, req service.AskRequest) string {
	f.reqs = append(f.reqs, req)
	if strings.TrimSpace(req.Message) == "" {
		return ""
	}
	return "answer to " + req.Message
}

type fakeConversations struct {
	history []model.ChatMessage
	err     error
}

func (f *fakeConversations) GetConversationHistory(context.Context, string) ([]model.ChatMessage, error) {
	return f.history, f.err
}

func (f *fakeConversations) AddMessagesToConversation(context.Context, string, ...model.ChatMessage) error {
	return f.err
}

type fakeReco struct {
	result     *service.GenerateResult
	err        error
	history    []model.Recommendation
	historyErr error
	users      []string
}

func (f *fakeReco) Generate(_ context.Context, userID, lang string) (*service.GenerateResult, error) {
	f.users = append(f.users, userID)
	return f.result, f.err
}

func (f *fakeReco) History(context.Context, string) ([]model.Recommendation, error) {
	return f.history, f.historyErr
}

type fakeReport struct {
	err  error
	reqs []service.ReportRequest
}

func (f *fakeReport) SendDailyReport(_ context.Context, req service.ReportRequest) error {
	f.reqs = append(f.reqs, req)
	return f.err
}

func newTestRouter(chat *ChatHandler, reco *RecoHandler, jwt *token.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chatGroup := r.Group("/chat")
	chatGroup.POST("/ask", chat.Ask)
	chatGroup.GET("/health", chat.Health)
	chatGroup.GET("/ws", chat.Handle)

	protected := r.Group("")
	if jwt != nil {
		protected.Use(middleware.AuthMiddleware(jwt))
	}
	protected.GET("/chat/history/:user_id", chat.History)
	protected.POST("/reco/generate", reco.Generate)
	protected.GET("/reco/history/:user_id", reco.History)
	protected.POST("/reco/send-report", reco.SendReport)
	r.GET("/reco/health", reco.Health)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatAsk(t *testing.T) {
	chat := &fakeChat{}
	r := newTestRouter(NewChatHandler(chat, nil, nil), NewRecoHandler(&fakeReco{}, &fakeReport{}), nil)

	w := do(t, r, http.MethodPost, "/chat/ask", `{"message":"yoga","lang":"fr","user_id":"u1","history":[{"role":"user","text":"hi"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"answer":"answer to yoga"}`, w.Body.String())
	require.Equal(t, "u1", chat.reqs[0].UserID)
	require.Equal(t, "fr", chat.reqs[0].Lang)
	require.Len(t, chat.reqs[0].History, 1)

	w = do(t, r, http.MethodPost, "/chat/ask", `{"message":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"answer":""}`, w.Body.String())

	w = do(t, r, http.MethodPost, "/chat/ask", `{not json`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatAsk_HistoryItemsWithExtraFields(t *testing.T) {
	chat := &fakeChat{}
	r := newTestRouter(NewChatHandler(chat, nil, nil), NewRecoHandler(&fakeReco{}, &fakeReport{}), nil)

	// 前端发送的历史带有数字 id 和毫秒时间戳，只需要 role 和 text
	w := do(t, r, http.MethodPost, "/chat/ask",
		`{"message":"yoga","history":[{"id":1,"role":"user","text":"hi","timestamp":1729300000000},{"id":2,"role":"assistant","text":"hello","timestamp":"2024-10-19T00:00:00Z"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"answer":"answer to yoga"}`, w.Body.String())
	require.Equal(t, []service.HistoryItem{
		{Role: "user", Text: "hi"},
		{Role: "assistant", Text: "hello"},
	}, chat.reqs[0].History)
}

func TestChatAsk_WithAuthUsesTokenUser(t *testing.T) {
	jwt := token.NewJWTManager("secret", 1)
	tok, err := jwt.GenerateToken("real-user")
	require.NoError(t, err)
	chat := &fakeChat{}
	r := newTestRouter(NewChatHandler(chat, nil, jwt), NewRecoHandler(&fakeReco{}, &fakeReport{}), jwt)

	do(t, r, http.MethodPost, "/chat/ask", `{"message":"yoga","user_id":"spoofed"}`, "Authorization", "Bearer "+tok)
	do(t, r, http.MethodPost, "/chat/ask", `{"message":"yoga","user_id":"spoofed"}`)

	require.Equal(t, "real-user", chat.reqs[0].UserID)
	require.Equal(t, "", chat.reqs[1].UserID)
}

func TestChatHistory(t *testing.T) {
	conv := &fakeConversations{history: []model.ChatMessage{{Role: model.RoleUser, Text: "hola"}}}
	r := newTestRouter(NewChatHandler(&fakeChat{}, conv, nil), NewRecoHandler(&fakeReco{}, &fakeReport{}), nil)

	w := do(t, r, http.MethodGet, "/chat/history/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got []model.ChatMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "hola", got[0].Text)

	conv.err = errors.New("redis down")
	w = do(t, r, http.MethodGet, "/chat/history/u1", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	r = newTestRouter(NewChatHandler(&fakeChat{}, nil, nil), NewRecoHandler(&fakeReco{}, &fakeReport{}), nil)
	w = do(t, r, http.MethodGet, "/chat/history/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())
}

func TestHealth(t *testing.T) {
	r := newTestRouter(NewChatHandler(&fakeChat{}, nil, nil), NewRecoHandler(&fakeReco{}, &fakeReport{}), nil)

	w := do(t, r, http.MethodGet, "/chat/health", "")
	require.JSONEq(t, `{"status":"ok","service":"chat"}`, w.Body.String())
	w = do(t, r, http.MethodGet, "/reco/health", "")
	require.JSONEq(t, `{"status":"ok","service":"reco"}`, w.Body.String())
}

func TestRecoGenerate(t *testing.T) {
	age := 39
	reco := &fakeReco{result: &service.GenerateResult{Answer: "**Plan**", Profile: model.Profile{ID: "u1", Age: &age}}}
	r := newTestRouter(NewChatHandler(&fakeChat{}, nil, nil), NewRecoHandler(reco, &fakeReport{}), nil)

	w := do(t, r, http.MethodPost, "/reco/generate", `{"user_id":"u1","lang":"fr"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "**Plan**", got["answer"])
	require.Equal(t, "u1", got["profile"].(map[string]interface{})["id"])

	w = do(t, r, http.MethodPost, "/reco/generate", `{"lang":"fr"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	reco.err = service.ErrNoAnswer
	w = do(t, r, http.MethodPost, "/reco/generate", `{"user_id":"u1"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRecoHistory(t *testing.T) {
	reco := &fakeReco{history: []model.Recommendation{{ID: 2, UserID: "u1", Answer: "b"}, {ID: 1, UserID: "u1", Answer: "a"}}}
	r := newTestRouter(NewChatHandler(&fakeChat{}, nil, nil), NewRecoHandler(reco, &fakeReport{}), nil)

	w := do(t, r, http.MethodGet, "/reco/history/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got []model.Recommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, []uint{2, 1}, []uint{got[0].ID, got[1].ID})

	reco.historyErr = errors.New("db down")
	w = do(t, r, http.MethodGet, "/reco/history/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())
}

func TestSendReport(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"ok", `{"user_id":"u1","email":"ana@example.com","name":"Ana"}`, nil, http.StatusOK},
		{"missing email", `{"user_id":"u1"}`, nil, http.StatusBadRequest},
		{"invalid email", `{"user_id":"u1","email":"nope"}`, nil, http.StatusBadRequest},
		{"no recommendation", `{"user_id":"u1","email":"a@b.co"}`, service.ErrNoRecommendation, http.StatusNotFound},
		{"mail not configured", `{"user_id":"u1","email":"a@b.co"}`, fmt.Errorf("%w: %w", service.ErrDeliveryFailed, mailer.ErrNotConfigured), http.StatusServiceUnavailable},
		{"delivery failed", `{"user_id":"u1","email":"a@b.co"}`, fmt.Errorf("%w: smtp 421", service.ErrDeliveryFailed), http.StatusBadGateway},
		{"store error", `{"user_id":"u1","email":"a@b.co"}`, errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := &fakeReport{err: tc.err}
			r := newTestRouter(NewChatHandler(&fakeChat{}, nil, nil), NewRecoHandler(&fakeReco{}, report), nil)

			w := do(t, r, http.MethodPost, "/reco/send-report", tc.body)
			require.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				require.JSONEq(t, `{"ok":true,"message":"Rapport du jour envoyé.","email":"ana@example.com"}`, w.Body.String())
				require.Equal(t, "Ana", report.reqs[0].Name)
			}
		})
	}
}

func TestRecoRoutes_RequireMatchingToken(t *testing.T) {
	jwt := token.NewJWTManager("secret", 1)
	tok, err := jwt.GenerateToken("u1")
	require.NoError(t, err)
	reco := &fakeReco{result: &service.GenerateResult{Answer: "x"}}
	r := newTestRouter(NewChatHandler(&fakeChat{}, nil, jwt), NewRecoHandler(reco, &fakeReport{}), jwt)
	auth := "Bearer " + tok

	require.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/reco/history/u1", "").Code)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/reco/history/u1", "", "Authorization", auth).Code)
	require.Equal(t, http.StatusForbidden, do(t, r, http.MethodGet, "/reco/history/u2", "", "Authorization", auth).Code)
	require.Equal(t, http.StatusForbidden, do(t, r, http.MethodPost, "/reco/generate", `{"user_id":"u2"}`, "Authorization", auth).Code)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/reco/generate", `{"user_id":"u1"}`, "Authorization", auth).Code)
	require.Equal(t, []string{"u1"}, reco.users)
}

func TestChatWebSocket(t *testing.T) {
	chat := &fakeChat{}
	r := newTestRouter(NewChatHandler(chat, nil, nil), NewRecoHandler(&fakeReco{}, &fakeReport{}), nil)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/chat/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"yoga","lang":"es"}`)))

	var answer map[string]interface{}
	require.NoError(t, conn.ReadJSON(&answer))
	require.Equal(t, "answer to yoga", answer["answer"])

	var done map[string]interface{}
	require.NoError(t, conn.ReadJSON(&done))
	require.Equal(t, "completion", done["type"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`oops`)))
	var bad map[string]interface{}
	require.NoError(t, conn.ReadJSON(&bad))
	require.Equal(t, "invalid request", bad["detail"])
}

func TestChatWebSocket_RequiresTokenWhenAuthEnabled(t *testing.T) {
	jwt := token.NewJWTManager("secret", 1)
	r := newTestRouter(NewChatHandler(&fakeChat{}, nil, jwt), NewRecoHandler(&fakeReco{}, &fakeReport{}), jwt)
	srv := httptest.NewServer(r)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/chat/ws", nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
