package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sportconnect-go/internal/model"
	"sportconnect-go/pkg/llm"
)

// MaxHistory 是发送给模型的历史消息上限。
const MaxHistory = 8

// ErrLocalOnly 表示未配置模型凭证，只能使用本地兜底回答。这不是故障。
var ErrLocalOnly = errors.New("coach: no model credential configured")

// ErrEmptyAnswer 表示模型返回了空内容。
var ErrEmptyAnswer = errors.New("coach: model returned an empty answer")

// DefaultSystemPrompt 是教练的人设与领域说明。
const DefaultSystemPrompt = "Eres el Assistant Coach IA de SportConnectIA. " +
	"Tu dominio es amplio dentro de la SALUD y el BIENESTAR FÍSICO y MENTAL, incluyendo:\n" +
	"- deporte en general (deportes de equipo como fútbol, baloncesto, voleibol; deportes individuales como running, natación, ciclismo, tenis, etc.),\n" +
	"- entrenamiento de fuerza y resistencia (gym, pesas, HIIT, cardio suave),\n" +
	"- movilidad, estiramientos, flexibilidad, calentamiento y vuelta a la calma,\n" +
	"- yoga, pilates, respiración, manejo del estrés y recuperación,\n" +
	"- alimentación saludable, nutrición deportiva, hidratación, sueño y descanso.\n" +
	"Tu misión es ayudar a la persona a entrenar mejor, sentirse más fuerte y llevar un estilo de vida equilibrado. Siempre que sea posible, propone:\n" +
	"1) un plan o rutina sencilla y segura adaptada al nivel, objetivo y tiempo disponible,\n" +
	"2) consejos de alimentación e hidratación razonables,\n" +
	"3) recomendaciones de recuperación, sueño y gestión del estrés.\n" +
	"Si no tienes suficiente información, haz primero 2 o 3 preguntas simples (nivel, frecuencia, lesiones, tiempo disponible).\n" +
	"Sé prudente: empieza con intensidades moderadas, sugiere progresión gradual y recomienda consultar a un profesional de la salud en caso de dolor o condición médica. " +
	"Si la pregunta está claramente fuera de estos temas (política, programación, chismes, etc.), rechaza amablemente en una o dos frases e invita a formular una pregunta sobre deporte, salud, yoga o nutrición.\n" +
	"Responde SIEMPRE en el idioma del usuario. " +
	"Si el usuario responde a una de tus preguntas, usa su respuesta para adaptar tus consejos y NO repitas la misma pregunta. Avanza paso a paso y mantén una conversación coherente.\n"

// Gateway 负责与外部聊天补全接口的一次往返。
type Gateway struct {
	client       llm.Client
	systemPrompt string
	gen          *llm.GenerationParams
}

// NewGateway 创建模型网关。systemPrompt 为空时使用 DefaultSystemPrompt；gen 为 nil 时使用客户端配置。
func NewGateway(client llm.Client, systemPrompt string, gen *llm.GenerationParams) *Gateway {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Gateway{client: client, systemPrompt: systemPrompt, gen: gen}
}

// Ask 调用模型并返回去除首尾空白的回答。
// 任何失败都以 error 返回，由调用方决定是否改用兜底回答；Ask 不会 panic。
func (g *Gateway) Ask(ctx context.Context, question, lang string, history []model.ChatMessage) (string, error) {
	if g.client == nil || !g.client.Configured() {
		return "", ErrLocalOnly
	}

	answer, err := g.client.ChatMessages(ctx, g.composeMessages(question, lang, history), g.gen)
	if err != nil {
		return "", fmt.Errorf("coach: model call failed: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

// composeMessages 按 system、最近的历史、当前问题的顺序组装消息。
func (g *Gateway) composeMessages(question, lang string, history []model.ChatMessage) []llm.Message {
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: g.systemPrompt})
	for _, m := range history {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		role := model.RoleUser
		if m.Role == model.RoleAssistant {
			role = model.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: text})
	}
	msgs = append(msgs, llm.Message{
		Role:    model.RoleUser,
		Content: fmt.Sprintf("Langue de l'utilisateur: %s\nDernier message: %s", lang, question),
	})
	return msgs
}
