// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"sportconnect-go/internal/config"
	"sportconnect-go/pkg/log"
)

// ReportArchive 把已发送的报告保存到 MinIO 存储桶。
type ReportArchive struct {
	client *minio.Client
	bucket string
}

// NewReportArchive 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewReportArchive(ctx context.Context, cfg config.MinIOConfig) (*ReportArchive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}
	log.Info("MinIO 客户端初始化成功")

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
		}
		log.Infof("存储桶 '%s' 创建成功", cfg.BucketName)
	}
	return &ReportArchive{client: client, bucket: cfg.BucketName}, nil
}

// ObjectName 返回报告在存储桶中的对象名：reports/{user}/{yyyy-mm-dd}/{task}.txt。
func ObjectName(userID, taskID string, at time.Time) string {
	return fmt.Sprintf("reports/%s/%s/%s.txt", userID, at.Format("2006-01-02"), taskID)
}

// Save 以纯文本形式保存一份报告，返回对象名。
func (a *ReportArchive) Save(ctx context.Context, userID, taskID, body string) (string, error) {
	objectName := ObjectName(userID, taskID, time.Now())
	_, err := a.client.PutObject(ctx, a.bucket, objectName, strings.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("上传报告到 MinIO 失败: %w", err)
	}
	return objectName, nil
}
