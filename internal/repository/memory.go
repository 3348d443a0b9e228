package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sportconnect-go/internal/model"
)

// 内存实现用于未配置 MySQL/Redis 的本地运行和测试，进程退出即丢失。

type memoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]model.Profile
}

// NewMemoryProfileRepository 创建一个内存中的 ProfileRepository。
func NewMemoryProfileRepository() ProfileRepository {
	return &memoryProfileRepository{profiles: make(map[string]model.Profile)}
}

func (r *memoryProfileRepository) FindByID(_ context.Context, id string) (*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *memoryProfileRepository) Save(_ context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if old, ok := r.profiles[profile.ID]; ok {
		profile.CreatedAt = old.CreatedAt
	} else if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	r.profiles[profile.ID] = *profile
	return nil
}

type memoryRecommendationRepository struct {
	mu     sync.RWMutex
	nextID uint
	recos  []model.Recommendation
}

// NewMemoryRecommendationRepository 创建一个内存中的 RecommendationRepository。
func NewMemoryRecommendationRepository() RecommendationRepository {
	return &memoryRecommendationRepository{}
}

func (r *memoryRecommendationRepository) Create(_ context.Context, reco *model.Recommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	reco.ID = r.nextID
	if reco.CreatedAt.IsZero() {
		reco.CreatedAt = time.Now()
	}
	r.recos = append(r.recos, *reco)
	return nil
}

func (r *memoryRecommendationRepository) ListByUser(_ context.Context, userID string) ([]model.Recommendation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Recommendation{}
	for _, reco := range r.recos {
		if reco.UserID == userID {
			out = append(out, reco)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *memoryRecommendationRepository) Latest(ctx context.Context, userID string) (*model.Recommendation, error) {
	recos, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(recos) == 0 {
		return nil, ErrNotFound
	}
	return &recos[0], nil
}

type memoryConversationRepository struct {
	mu            sync.Mutex
	current       map[string]string
	conversations map[string][]model.ChatMessage
}

// NewMemoryConversationRepository 创建一个内存中的 ConversationRepository。
func NewMemoryConversationRepository() ConversationRepository {
	return &memoryConversationRepository{
		current:       make(map[string]string),
		conversations: make(map[string][]model.ChatMessage),
	}
}

func (r *memoryConversationRepository) GetOrCreateConversationID(_ context.Context, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.current[userID]; ok {
		return id, nil
	}
	id := uuid.NewString()
	r.current[userID] = id
	return id, nil
}

func (r *memoryConversationRepository) GetConversationHistory(_ context.Context, conversationID string) ([]model.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ChatMessage{}, r.conversations[conversationID]...), nil
}

func (r *memoryConversationRepository) UpdateConversationHistory(_ context.Context, conversationID string, messages []model.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[conversationID] = append([]model.ChatMessage{}, trimHistory(messages)...)
	return nil
}
