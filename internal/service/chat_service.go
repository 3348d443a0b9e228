// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"sportconnect-go/internal/coach"
	"sportconnect-go/internal/lexicon"
	"sportconnect-go/internal/model"
	"sportconnect-go/pkg/log"
)

// Answerer 是模型网关的抽象，*coach.Gateway 实现了它。
type Answerer interface {
	Ask(ctx context.Context, question, lang string, history []model.ChatMessage) (string, error)
}

// HistoryItem 是请求中携带的一条历史消息，只读取 role 和 text，其他字段忽略。
type HistoryItem struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// AskRequest 是一次聊天提问。
type AskRequest struct {
	Message string        `json:"message"`
	Lang    string        `json:"lang"`
	History []HistoryItem `json:"history"`
	UserID  string        `json:"user_id"`
}

func (r AskRequest) history() []model.ChatMessage {
	if len(r.History) == 0 {
		return nil
	}
	out := make([]model.ChatMessage, 0, len(r.History))
	for _, item := range r.History {
		out = append(out, model.ChatMessage{Role: item.Role, Text: item.Text})
	}
	return out
}

// ChatService 定义了聊天操作的接口。
type ChatService interface {
	// Ask 总是返回一段可展示的文本：空消息返回 ""，领域外的问题返回拒答文案，
	// 模型不可用时返回兜底回答。
	Ask(ctx context.Context, req AskRequest) string
}

type chatService struct {
	table         *lexicon.Table
	filter        *coach.DomainFilter
	gateway       Answerer
	conversations ConversationService
	defaultLang   string
	now           func() time.Time
}

// NewChatService 创建一个新的 ChatService 实例。conversations 为 nil 时不保存对话。
func NewChatService(table *lexicon.Table, gateway Answerer, conversations ConversationService, defaultLang string) ChatService {
	return &chatService{
		table:         table,
		filter:        coach.NewDomainFilter(table),
		gateway:       gateway,
		conversations: conversations,
		defaultLang:   defaultLang,
		now:           time.Now,
	}
}

func (s *chatService) Ask(ctx context.Context, req AskRequest) string {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return ""
	}
	lang := normalizeLang(req.Lang, s.defaultLang)

	if !s.filter.IsAllowed(message) {
		log.Infow("拒绝领域外的问题", "user_id", req.UserID, "lang", lang)
		return s.table.Lookup(lang).Refusal
	}

	history := req.history()
	if len(history) == 0 && req.UserID != "" && s.conversations != nil {
		stored, err := s.conversations.GetConversationHistory(ctx, req.UserID)
		if err != nil {
			log.Warnw("加载对话历史失败", "user_id", req.UserID, "error", err)
		} else {
			history = stored
		}
	}

	// 客户端断开不影响模型调用和保存，模型调用由 llm 客户端超时约束
	detached := context.WithoutCancel(ctx)
	answer, err := s.gateway.Ask(detached, message, lang, history)
	if err != nil {
		logFallback("聊天改用兜底回答", req.UserID, lang, err)
		answer = coach.FallbackAnswer(message, lang)
	}

	if req.UserID != "" && s.conversations != nil {
		now := s.now()
		err := s.conversations.AddMessagesToConversation(detached, req.UserID,
			model.ChatMessage{Role: model.RoleUser, Text: message, Timestamp: now},
			model.ChatMessage{Role: model.RoleAssistant, Text: answer, Timestamp: now},
		)
		if err != nil {
			log.Warnw("保存对话历史失败", "user_id", req.UserID, "error", err)
		}
	}
	return answer
}

// normalizeLang 返回小写的语言代码，为空时使用 def。
func normalizeLang(lang, def string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return strings.ToLower(def)
	}
	return lang
}

// logFallback 记录一次降级。未配置凭证属于正常情况，只记 info。
func logFallback(msg, userID, lang string, err error) {
	if errors.Is(err, coach.ErrLocalOnly) {
		log.Infow(msg, "user_id", userID, "lang", lang, "reason", err)
		return
	}
	log.Warnw(msg, "user_id", userID, "lang", lang, "error", err)
}
