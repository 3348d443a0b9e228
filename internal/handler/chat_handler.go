package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sportconnect-go/internal/model"
	"sportconnect-go/internal/service"
	"sportconnect-go/pkg/log"
	"sportconnect-go/pkg/token"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 来源由 CORS 配置约束
	},
}

// ChatHandler 负责处理聊天相关的 HTTP 与 WebSocket 请求。
type ChatHandler struct {
	chatService   service.ChatService
	conversations service.ConversationService
	jwtManager    *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
// jwtManager 不为 nil 时，只有携带有效 token 的请求才会读写该用户的对话历史。
func NewChatHandler(chatService service.ChatService, conversations service.ConversationService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		chatService:   chatService,
		conversations: conversations,
		jwtManager:    jwtManager,
	}
}

// Ask 处理 POST /chat/ask，总是以 200 返回 {answer}。
func (h *ChatHandler) Ask(c *gin.Context) {
	var req service.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Ask: Invalid request payload, error: %v", err)
		abortWithDetail(c, http.StatusBadRequest, "Requête invalide.")
		return
	}
	if h.jwtManager != nil {
		req.UserID = h.bearerUserID(c.GetHeader("Authorization"))
	}

	answer := h.chatService.Ask(c.Request.Context(), req)
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// bearerUserID 返回 Authorization 头中有效 token 的用户，无效时返回空串。
func (h *ChatHandler) bearerUserID(header string) string {
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	claims, err := h.jwtManager.VerifyToken(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		return ""
	}
	return claims.UserID
}

// History 处理 GET /chat/history/:user_id。
func (h *ChatHandler) History(c *gin.Context) {
	userID := c.Param("user_id")
	if !authorizeUser(c, userID) {
		return
	}
	if h.conversations == nil {
		c.JSON(http.StatusOK, []model.ChatMessage{})
		return
	}
	history, err := h.conversations.GetConversationHistory(c.Request.Context(), userID)
	if err != nil {
		log.Errorf("History: failed to load conversation for %s: %v", userID, err)
		abortWithDetail(c, http.StatusInternalServerError, "Impossible de lire l'historique.")
		return
	}
	c.JSON(http.StatusOK, history)
}

// Health 处理 GET /chat/health。
func (h *ChatHandler) Health(c *gin.Context) {
	health("chat")(c)
}

// Handle 处理一个传入的 WebSocket 连接。每个文本帧是一个提问，
// 回复一帧 {answer}，随后一帧 completion 通知。
func (h *ChatHandler) Handle(c *gin.Context) {
	var callerID string
	if h.jwtManager != nil {
		claims, err := h.jwtManager.VerifyToken(c.Query("token"))
		if err != nil {
			abortWithDetail(c, http.StatusUnauthorized, "Token invalide.")
			return
		}
		callerID = claims.UserID
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infow("WebSocket 连接已建立", "user_id", callerID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			return
		}

		var req service.AskRequest
		if err := json.Unmarshal(message, &req); err != nil {
			writeJSON(conn, gin.H{"detail": "invalid request"})
			continue
		}
		if h.jwtManager != nil {
			req.UserID = callerID
		}

		answer := h.chatService.Ask(c.Request.Context(), req)
		if err := writeJSON(conn, gin.H{"answer": answer}); err != nil {
			log.Warnf("写入 WebSocket 失败: %v", err)
			return
		}
		sendCompletion(conn)
	}
}

func writeJSON(conn *websocket.Conn, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

// sendCompletion 发送完成通知 JSON
func sendCompletion(conn *websocket.Conn) {
	now := time.Now()
	_ = writeJSON(conn, gin.H{
		"type":      "completion",
		"status":    "finished",
		"timestamp": now.UnixMilli(),
		"date":      now.Format("2006-01-02T15:04:05"),
	})
}
