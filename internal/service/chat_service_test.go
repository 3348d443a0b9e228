package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"sportconnect-go/internal/coach"
	"sportconnect-go/internal/lexicon"
	"sportconnect-go/internal/model"
	"sportconnect-go/internal/repository"
)

func newChat(gw Answerer, conv ConversationService) ChatService {
	return NewChatService(lexicon.Default(), gw, conv, "es")
}

func TestChatAsk_EmptyMessage(t *testing.T) {
	gw := &fakeAnswerer{answer: "x"}
	require.Equal(t, "", newChat(gw, nil).Ask(context.Background(), AskRequest{Message: "   "}))
	require.Zero(t, gw.calls)
}

func TestChatAsk_OffTopicIsRefusedInLanguage(t *testing.T) {
	gw := &fakeAnswerer{answer: "x"}
	svc := newChat(gw, nil)
	tbl := lexicon.Default()

	got := svc.Ask(context.Background(), AskRequest{Message: "Quelle est la capitale de la France ?", Lang: "fr"})
	require.Equal(t, tbl.Lookup("fr").Refusal, got)

	// 未指定语言时使用聊天默认语言
	got = svc.Ask(context.Background(), AskRequest{Message: "who won the election"})
	require.Equal(t, tbl.Lookup("es").Refusal, got)

	got = svc.Ask(context.Background(), AskRequest{Message: "who won the election", Lang: "de"})
	require.Equal(t, tbl.Lookup("en").Refusal, got)
	require.Zero(t, gw.calls)
}

func TestChatAsk_UsesModelAnswer(t *testing.T) {
	gw := &fakeAnswerer{answer: "**Plan**\n* Camina 30 minutos."}
	history := []HistoryItem{{Role: model.RoleUser, Text: "hola"}}

	got := newChat(gw, nil).Ask(context.Background(), AskRequest{Message: " Rutina de yoga ", Lang: "ES", History: history})

	require.Equal(t, "**Plan**\n* Camina 30 minutos.", got)
	require.Equal(t, []string{"Rutina de yoga"}, gw.questions)
	require.Equal(t, []string{"es"}, gw.langs)
	require.Equal(t, []model.ChatMessage{{Role: model.RoleUser, Text: "hola"}}, gw.histories[0])
}

func TestChatAsk_FallbackOnGatewayFailure(t *testing.T) {
	for _, err := range []error{coach.ErrLocalOnly, errors.New("boom"), coach.ErrEmptyAnswer} {
		gw := &fakeAnswerer{err: err}
		got := newChat(gw, nil).Ask(context.Background(), AskRequest{Message: "plan de entrenamiento", Lang: "es"})
		require.Equal(t, coach.FallbackAnswer("plan de entrenamiento", "es"), got)
	}
}

func TestChatAsk_StoresAndReusesTranscript(t *testing.T) {
	ctx := context.Background()
	conv := NewConversationService(repository.NewMemoryConversationRepository())
	gw := &fakeAnswerer{answer: "Duerme 8 horas."}
	svc := newChat(gw, conv)

	svc.Ask(ctx, AskRequest{Message: "consejos de sueño", UserID: "u1"})
	svc.Ask(ctx, AskRequest{Message: "y para el estrés?", UserID: "u1"})

	// 第二次提问带上了第一轮的历史
	require.Empty(t, gw.histories[0])
	require.Len(t, gw.histories[1], 2)
	require.Equal(t, "consejos de sueño", gw.histories[1][0].Text)
	require.Equal(t, model.RoleAssistant, gw.histories[1][1].Role)

	stored, err := conv.GetConversationHistory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored, 4)
	require.Equal(t, "y para el estrés?", stored[2].Text)
}

func TestChatAsk_RequestHistoryWinsOverStore(t *testing.T) {
	ctx := context.Background()
	conv := NewConversationService(repository.NewMemoryConversationRepository())
	require.NoError(t, conv.AddMessagesToConversation(ctx, "u1", model.ChatMessage{Role: model.RoleUser, Text: "stored"}))
	gw := &fakeAnswerer{answer: "ok"}

	newChat(gw, conv).Ask(ctx, AskRequest{
		Message: "yoga",
		UserID:  "u1",
		History: []HistoryItem{{Role: model.RoleUser, Text: "from request"}},
	})
	require.Equal(t, "from request", gw.histories[0][0].Text)
}

func TestChatAsk_StoreFailuresAreIgnored(t *testing.T) {
	gw := &fakeAnswerer{answer: "ok"}
	got := newChat(gw, failingConversations{}).Ask(context.Background(), AskRequest{Message: "yoga", UserID: "u1"})
	require.Equal(t, "ok", got)
	require.Nil(t, gw.histories[0])
}

func TestChatAsk_CallerDisconnectStillGetsModelAnswer(t *testing.T) {
	conv := NewConversationService(repository.NewMemoryConversationRepository())
	gw := &fakeAnswerer{answer: "Estira 10 minutos."}

	got := newChat(gw, conv).Ask(cancelledContext(), AskRequest{Message: "estiramientos", UserID: "u1"})
	require.Equal(t, "Estira 10 minutos.", got)
	require.NoError(t, gw.ctxErrs[0])

	stored, err := conv.GetConversationHistory(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, "Estira 10 minutos.", stored[1].Text)
}

func TestChatAsk_CallerDisconnectWithRealGateway(t *testing.T) {
	gw := newModelGateway(t, "**Plan**\n* Yoga suave.")
	got := newChat(gw, nil).Ask(cancelledContext(), AskRequest{Message: "yoga", Lang: "es"})
	require.Equal(t, "**Plan**\n* Yoga suave.", got)
}
