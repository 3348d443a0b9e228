// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"

	"sportconnect-go/internal/config"
	"sportconnect-go/pkg/log"
	"sportconnect-go/pkg/tasks"
)

// 同一任务失败达到该次数后提交 offset，不再重试
const maxAttempts = 3

// retryBackoff 是第一次重试前的等待时间，之后按尝试次数线性增长。
const retryBackoff = 2 * time.Second

// TaskProcessor defines the interface for any service that can process a report task.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.ReportTask) error
}

func brokers(cfg config.KafkaConfig) []string {
	var out []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Producer 把报告任务写入 Kafka，由消费者异步发送。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers(cfg)...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w}
}

// Dispatch 发送一个报告任务到 Kafka，以用户 ID 作为消息 key。
func (p *Producer) Dispatch(ctx context.Context, task tasks.ReportTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.UserID),
		Value: taskBytes,
	})
	if err != nil {
		return fmt.Errorf("写入 Kafka 失败: %w", err)
	}
	return nil
}

// Close 关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// attemptCounter 记录任务失败次数。rdb 为 nil 时只在进程内计数。
type attemptCounter struct {
	rdb   *redis.Client
	local map[string]int64
}

func (c *attemptCounter) incr(ctx context.Context, taskID string) (int64, error) {
	if c.rdb == nil {
		c.local[taskID]++
		return c.local[taskID], nil
	}
	key := fmt.Sprintf("kafka:attempts:%s", taskID)
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = c.rdb.Expire(ctx, key, 24*time.Hour).Err()
	return n, nil
}

func (c *attemptCounter) reset(ctx context.Context, taskID string) {
	if c.rdb == nil {
		delete(c.local, taskID)
		return
	}
	_ = c.rdb.Del(ctx, fmt.Sprintf("kafka:attempts:%s", taskID)).Err()
}

// StartConsumer 启动一个 Kafka 消费者来处理报告任务，直到 ctx 结束。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor, rdb *redis.Client) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	attempts := &attemptCounter{rdb: rdb, local: make(map[string]int64)}

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Error("从 Kafka 读取消息失败", err)
			}
			break
		}

		var task tasks.ReportTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		log.Infow("开始处理报告任务", "task_id", task.ID, "user_id", task.UserID, "offset", m.Offset)
		err = handleTask(ctx, processor, task, attempts, retryBackoff)
		if errors.Is(err, context.Canceled) {
			// 停机时不提交，下次启动重新投递
			break
		}
		if err != nil {
			log.Errorf("报告任务多次失败(>=%d)，提交 offset 终止重试: id=%s, Error: %v", maxAttempts, task.ID, err)
		} else {
			log.Infof("报告任务处理成功: id=%s", task.ID)
		}
		// group reader 的 offset 只会前进，处理结束后才提交
		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
		}
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}

// handleTask 在同一条消息上重试，直到成功、累计失败达到 maxAttempts 或 ctx 结束。
// 失败次数记在 attempts 中，进程重启后重新投递的消息会接着之前的次数计算。
func handleTask(ctx context.Context, processor TaskProcessor, task tasks.ReportTask, attempts *attemptCounter, backoff time.Duration) error {
	for try := 1; ; try++ {
		err := processor.Process(ctx, task)
		if err == nil {
			attempts.reset(ctx, task.ID)
			return nil
		}
		log.Warnw("处理报告任务失败", "task_id", task.ID, "try", try, "error", err)

		n, incErr := attempts.incr(ctx, task.ID)
		if incErr != nil {
			log.Warnw("记录失败次数失败，按本次进程内的次数计算", "task_id", task.ID, "error", incErr)
			n = int64(try)
		}
		if n >= maxAttempts {
			attempts.reset(ctx, task.ID)
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(n)):
		}
	}
}
