// Package pipeline 定义了每日报告的投递流程。
package pipeline

import (
	"context"
	"fmt"

	"sportconnect-go/pkg/log"
	"sportconnect-go/pkg/mailer"
	"sportconnect-go/pkg/tasks"
)

// Archiver 保存已发送的报告副本。
type Archiver interface {
	Save(ctx context.Context, userID, taskID, body string) (string, error)
}

// ReportProcessor 封装了报告投递的所有依赖和逻辑。
// 同步投递时作为 Dispatcher 使用，异步投递时作为 Kafka 消费者的 TaskProcessor。
type ReportProcessor struct {
	sender  mailer.Sender
	archive Archiver
}

// NewReportProcessor 创建一个新的 ReportProcessor 实例。archive 为 nil 时不归档。
func NewReportProcessor(sender mailer.Sender, archive Archiver) *ReportProcessor {
	return &ReportProcessor{sender: sender, archive: archive}
}

// Dispatch 立即投递报告。
func (p *ReportProcessor) Dispatch(ctx context.Context, task tasks.ReportTask) error {
	return p.Process(ctx, task)
}

// Process 发送报告邮件，成功后归档。归档失败只记录日志。
func (p *ReportProcessor) Process(ctx context.Context, task tasks.ReportTask) error {
	log.Infow("[ReportProcessor] 发送报告", "task_id", task.ID, "user_id", task.UserID, "recommendation_id", task.RecommendationID)

	if err := p.sender.Send(ctx, task.To, task.Subject, task.Body); err != nil {
		return fmt.Errorf("发送报告邮件失败: %w", err)
	}

	if p.archive == nil {
		return nil
	}
	objectName, err := p.archive.Save(ctx, task.UserID, task.ID, task.Body)
	if err != nil {
		log.Warnw("[ReportProcessor] 报告归档失败", "task_id", task.ID, "error", err)
		return nil
	}
	log.Infof("[ReportProcessor] 报告已归档: %s", objectName)
	return nil
}
