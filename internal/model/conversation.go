package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 代表对话中的一条消息，既用于请求携带的历史，也用于 Redis 中保存的记录。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
