package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"sportconnect-go/internal/coach"
	"sportconnect-go/internal/model"
	"sportconnect-go/internal/repository"
	"sportconnect-go/pkg/log"
)

// ErrNoAnswer 表示模型和兜底都没有产生回答。
var ErrNoAnswer = errors.New("service: no recommendation answer produced")

// GenerateResult 是一次推荐生成的结果。
type GenerateResult struct {
	Answer  string        `json:"answer"`
	Profile model.Profile `json:"profile"`
}

// RecoService 定义了推荐生成与历史查询的接口。
type RecoService interface {
	Generate(ctx context.Context, userID, lang string) (*GenerateResult, error)
	History(ctx context.Context, userID string) ([]model.Recommendation, error)
}

type recoService struct {
	profiles       repository.ProfileRepository
	recos          repository.RecommendationRepository
	prompts        *coach.PromptBuilder
	gateway        Answerer
	defaultProfile model.Profile
	defaultLang    string
	now            func() time.Time
}

// NewRecoService 创建一个新的 RecoService 实例。
// defaultProfile 用于首次请求的用户以及补齐档案中缺失的字段。
func NewRecoService(
	profiles repository.ProfileRepository,
	recos repository.RecommendationRepository,
	prompts *coach.PromptBuilder,
	gateway Answerer,
	defaultProfile model.Profile,
	defaultLang string,
) RecoService {
	return &recoService{
		profiles:       profiles,
		recos:          recos,
		prompts:        prompts,
		gateway:        gateway,
		defaultProfile: defaultProfile,
		defaultLang:    defaultLang,
		now:            time.Now,
	}
}

// Generate 为用户生成一条四章节的推荐并追加到历史中。
// 档案读写和推荐保存失败只记录日志，不影响返回的回答。
func (s *recoService) Generate(ctx context.Context, userID, lang string) (*GenerateResult, error) {
	profile := s.loadProfile(ctx, userID)
	lang = normalizeLang(lang, normalizeLang(profile.Lang, s.defaultLang))

	prompt := s.prompts.Build(profile, lang)

	// 客户端断开后模型调用和保存仍然完成，模型调用由 llm 客户端超时约束
	detached := context.WithoutCancel(ctx)
	answer, err := s.gateway.Ask(detached, prompt, lang, nil)
	if err != nil {
		logFallback("推荐生成改用兜底回答", userID, lang, err)
		answer = coach.FallbackAnswer(prompt, lang)
	}
	if strings.TrimSpace(answer) == "" {
		log.Warnw("推荐生成没有得到任何回答", "user_id", userID, "lang", lang)
		return nil, ErrNoAnswer
	}

	reco := &model.Recommendation{
		UserID:    userID,
		Question:  prompt,
		Answer:    answer,
		CreatedAt: s.now(),
		Age:       profile.Age,
		WeightKg:  profile.WeightKg,
		HeightCm:  profile.HeightCm,
		MainGoal:  profile.MainGoal,
		Lang:      lang,
	}
	if err := s.recos.Create(detached, reco); err != nil {
		log.Warnw("保存推荐记录失败", "user_id", userID, "error", err)
	}

	return &GenerateResult{Answer: answer, Profile: profile}, nil
}

// loadProfile 读取用户档案并用默认档案补齐；档案不存在时保存一份默认档案。
func (s *recoService) loadProfile(ctx context.Context, userID string) model.Profile {
	def := s.defaultProfile
	def.ID = userID

	stored, err := s.profiles.FindByID(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		created := def
		if err := s.profiles.Save(context.WithoutCancel(ctx), &created); err != nil {
			log.Warnw("创建默认档案失败", "user_id", userID, "error", err)
		}
		return def
	case err != nil:
		log.Warnw("读取档案失败，使用默认档案", "user_id", userID, "error", err)
		return def
	}
	return stored.MergeDefaults(def)
}

// History 按时间倒序返回用户的推荐记录。
func (s *recoService) History(ctx context.Context, userID string) ([]model.Recommendation, error) {
	return s.recos.ListByUser(ctx, userID)
}
