package service

import (
	"context"

	"sportconnect-go/internal/model"
	"sportconnect-go/internal/repository"
)

// ConversationService 定义了对话历史的业务逻辑接口，按外部用户 ID 保存。
type ConversationService interface {
	GetConversationHistory(ctx context.Context, userID string) ([]model.ChatMessage, error)
	AddMessagesToConversation(ctx context.Context, userID string, messages ...model.ChatMessage) error
}

type conversationService struct {
	repo repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.ConversationRepository) ConversationService {
	return &conversationService{repo: repo}
}

// GetConversationHistory 获取用户当前会话的完整消息历史。
func (s *conversationService) GetConversationHistory(ctx context.Context, userID string) ([]model.ChatMessage, error) {
	conversationID, err := s.repo.GetOrCreateConversationID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetConversationHistory(ctx, conversationID)
}

// AddMessagesToConversation 将消息追加到用户的对话历史中。
func (s *conversationService) AddMessagesToConversation(ctx context.Context, userID string, messages ...model.ChatMessage) error {
	conversationID, err := s.repo.GetOrCreateConversationID(ctx, userID)
	if err != nil {
		return err
	}
	history, err := s.repo.GetConversationHistory(ctx, conversationID)
	if err != nil {
		return err
	}
	history = append(history, messages...)
	return s.repo.UpdateConversationHistory(ctx, conversationID, history)
}
