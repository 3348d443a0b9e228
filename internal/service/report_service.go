package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"sportconnect-go/internal/coach"
	"sportconnect-go/internal/lexicon"
	"sportconnect-go/internal/repository"
	"sportconnect-go/pkg/log"
	"sportconnect-go/pkg/tasks"
)

var (
	// ErrNoRecommendation 表示用户还没有任何推荐记录。
	ErrNoRecommendation = errors.New("service: no recommendation for user")
	// ErrDeliveryFailed 表示报告已生成但投递失败。
	ErrDeliveryFailed = errors.New("service: report delivery failed")
)

// Dispatcher 负责把报告任务交给投递管道，可能同步发送也可能写入队列。
type Dispatcher interface {
	Dispatch(ctx context.Context, task tasks.ReportTask) error
}

// ReportRequest 是发送每日报告的请求。
type ReportRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Lang   string `json:"lang"`
}

// ReportService 定义了每日报告的接口。
type ReportService interface {
	SendDailyReport(ctx context.Context, req ReportRequest) error
}

type reportService struct {
	table       *lexicon.Table
	recos       repository.RecommendationRepository
	daily       *coach.DailyPlanFilter
	dispatcher  Dispatcher
	defaultLang string
}

// NewReportService 创建一个新的 ReportService 实例。
func NewReportService(table *lexicon.Table, recos repository.RecommendationRepository, daily *coach.DailyPlanFilter, dispatcher Dispatcher, defaultLang string) ReportService {
	return &reportService{
		table:       table,
		recos:       recos,
		daily:       daily,
		dispatcher:  dispatcher,
		defaultLang: defaultLang,
	}
}

// SendDailyReport 读取最新推荐，只保留当天的训练条目，生成邮件并投递。
func (s *reportService) SendDailyReport(ctx context.Context, req ReportRequest) error {
	reco, err := s.recos.Latest(ctx, req.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNoRecommendation
	}
	if err != nil {
		return fmt.Errorf("failed to load latest recommendation: %w", err)
	}

	lang := normalizeLang(req.Lang, normalizeLang(reco.Lang, s.defaultLang))
	texts := s.table.Lookup(lang).Report
	plan := s.daily.FilterToday(reco.Answer, lang)

	task := tasks.ReportTask{
		ID:               uuid.NewString(),
		UserID:           req.UserID,
		RecommendationID: reco.ID,
		To:               req.Email,
		Subject:          texts.Subject,
		Body:             RenderReport(texts, req.Name, plan),
		Lang:             lang,
	}
	if err := s.dispatcher.Dispatch(ctx, task); err != nil {
		log.Warnw("投递每日报告失败", "user_id", req.UserID, "task_id", task.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	log.Infow("每日报告已投递", "user_id", req.UserID, "task_id", task.ID, "recommendation_id", reco.ID)
	return nil
}

// RenderReport 生成纯文本邮件正文：问候、说明、当天计划、结束语和署名。
func RenderReport(texts lexicon.Report, name, plan string) string {
	var b strings.Builder
	name = strings.TrimSpace(name)
	if name != "" && texts.Greeting != "" {
		fmt.Fprintf(&b, texts.Greeting, name)
	} else {
		b.WriteString(texts.GreetingNoName)
	}
	b.WriteString("\n\n")
	if texts.Intro != "" {
		b.WriteString(texts.Intro)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(plan))
	b.WriteString("\n\n")
	if texts.Closing != "" {
		b.WriteString(texts.Closing)
		b.WriteString("\n\n")
	}
	b.WriteString(texts.Signature)
	b.WriteString("\n")
	return b.String()
}
