// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"sportconnect-go/internal/model"
)

const (
	// 每个会话最多保留的消息条数
	maxStoredMessages = 20
	conversationTTL   = 7 * 24 * time.Hour
)

// ConversationRepository 定义了对话历史记录的操作接口。
type ConversationRepository interface {
	GetOrCreateConversationID(ctx context.Context, userID string) (string, error)
	GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error)
	UpdateConversationHistory(ctx context.Context, conversationID string, messages []model.ChatMessage) error
}

type redisConversationRepository struct {
	redisClient *redis.Client
}

// NewConversationRepository 创建一个基于 Redis 的 ConversationRepository 实例。
func NewConversationRepository(redisClient *redis.Client) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient}
}

func userConversationKey(userID string) string {
	return fmt.Sprintf("coach:user:%s:current_conversation", userID)
}

func conversationKey(conversationID string) string {
	return fmt.Sprintf("coach:conversation:%s", conversationID)
}

// GetOrCreateConversationID 获取用户当前的对话ID，不存在时创建一个新的。
func (r *redisConversationRepository) GetOrCreateConversationID(ctx context.Context, userID string) (string, error) {
	userKey := userConversationKey(userID)
	convID, err := r.redisClient.Get(ctx, userKey).Result()
	if err == redis.Nil {
		convID = uuid.NewString()
		if err := r.redisClient.Set(ctx, userKey, convID, conversationTTL).Err(); err != nil {
			return "", fmt.Errorf("failed to set conversation id: %w", err)
		}
		return convID, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get conversation id: %w", err)
	}
	return convID, nil
}

// GetConversationHistory 从 Redis 获取对话历史记录。
func (r *redisConversationRepository) GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	jsonData, err := r.redisClient.Get(ctx, conversationKey(conversationID)).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// UpdateConversationHistory 在 Redis 中覆盖对话历史记录，只保留最近 20 条。
func (r *redisConversationRepository) UpdateConversationHistory(ctx context.Context, conversationID string, messages []model.ChatMessage) error {
	messages = trimHistory(messages)
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	if err := r.redisClient.Set(ctx, conversationKey(conversationID), jsonData, conversationTTL).Err(); err != nil {
		return fmt.Errorf("failed to set conversation history: %w", err)
	}
	return nil
}

func trimHistory(messages []model.ChatMessage) []model.ChatMessage {
	if len(messages) > maxStoredMessages {
		return messages[len(messages)-maxStoredMessages:]
	}
	return messages
}
