// Package main 是应用程序的入口点。
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"sportconnect-go/internal/coach"
	"sportconnect-go/internal/config"
	"sportconnect-go/internal/handler"
	"sportconnect-go/internal/lexicon"
	"sportconnect-go/internal/middleware"
	"sportconnect-go/internal/model"
	"sportconnect-go/internal/pipeline"
	"sportconnect-go/internal/repository"
	"sportconnect-go/internal/service"
	"sportconnect-go/pkg/database"
	"sportconnect-go/pkg/kafka"
	"sportconnect-go/pkg/llm"
	"sportconnect-go/pkg/log"
	"sportconnect-go/pkg/mailer"
	"sportconnect-go/pkg/storage"
	"sportconnect-go/pkg/token"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 初始化配置
	config.Init(*configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. 初始化存储：未配置 DSN / Redis 地址时使用内存实现
	var (
		profileRepo repository.ProfileRepository
		recoRepo    repository.RecommendationRepository
		convRepo    repository.ConversationRepository
		rdb         *redis.Client
	)
	if cfg.Database.MySQL.DSN != "" {
		db, err := database.OpenMySQL(cfg.Database.MySQL.DSN)
		if err != nil {
			log.Fatal("初始化 MySQL 失败", err)
		}
		profileRepo = repository.NewProfileRepository(db)
		recoRepo = repository.NewRecommendationRepository(db)
	} else {
		log.Warnf("未配置 database.mysql.dsn，档案和推荐只保存在内存中")
		profileRepo = repository.NewMemoryProfileRepository()
		recoRepo = repository.NewMemoryRecommendationRepository()
	}
	if cfg.Database.Redis.Addr != "" {
		var err error
		rdb, err = database.OpenRedis(rootCtx, cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
		if err != nil {
			log.Fatal("初始化 Redis 失败", err)
		}
		defer rdb.Close()
		convRepo = repository.NewConversationRepository(rdb)
	} else {
		convRepo = repository.NewMemoryConversationRepository()
	}

	// 4. 词表与教练组件
	table, err := lexicon.Load(cfg.Coach.LexiconPath)
	if err != nil {
		log.Fatal("加载词表失败", err)
	}
	if err := coach.CheckFallback(table); err != nil {
		log.Fatal("兜底模板与词表不一致", err)
	}
	llmClient := llm.NewClient(cfg.LLM)
	if !llmClient.Configured() {
		log.Warnf("未配置 llm.api_key，所有回答将使用本地兜底内容")
	}
	gateway := coach.NewGateway(llmClient, cfg.LLM.Prompt.System, nil)
	dailyFilter := coach.NewDailyPlanFilter(table, nil)

	// 5. 初始化 Service (依赖注入)
	conversationService := service.NewConversationService(convRepo)
	chatService := service.NewChatService(table, gateway, conversationService, cfg.Coach.ChatDefaultLang)
	recoService := service.NewRecoService(
		profileRepo,
		recoRepo,
		coach.NewPromptBuilder(table),
		gateway,
		defaultProfile(cfg.Coach.DefaultProfile),
		cfg.Coach.RecoDefaultLang,
	)

	// 6. 报告投递管道
	processor := newReportProcessor(rootCtx, cfg)
	var dispatcher service.Dispatcher = processor
	if strings.EqualFold(cfg.Report.Delivery, "kafka") {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		dispatcher = producer
		// 启动后台 Kafka 消费者
		go kafka.StartConsumer(rootCtx, cfg.Kafka, processor, rdb)
	}
	reportService := service.NewReportService(table, recoRepo, dailyFilter, dispatcher, cfg.Coach.RecoDefaultLang)

	// 7. 认证：token 由外部认证服务签发
	var jwtManager *token.JWTManager
	if cfg.JWT.Enabled {
		jwtManager = token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	}

	// 8. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	r := setupRouter(cfg,
		handler.NewChatHandler(chatService, conversationService, jwtManager),
		handler.NewRecoHandler(recoService, reportService),
		jwtManager,
	)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 停止 Kafka 消费者
	cancel()

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}

func setupRouter(cfg config.Config, chat *handler.ChatHandler, reco *handler.RecoHandler, jwtManager *token.JWTManager) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.CORSOrigins
		corsCfg.AllowCredentials = true
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	chatGroup := r.Group("/chat")
	{
		chatGroup.POST("/ask", chat.Ask)
		chatGroup.GET("/health", chat.Health)
		chatGroup.GET("/ws", chat.Handle)
	}

	recoGroup := r.Group("/reco")
	{
		recoGroup.GET("/health", reco.Health)
	}

	// 启用认证时，需要校验调用者身份的路由
	protected := r.Group("")
	if jwtManager != nil {
		protected.Use(middleware.AuthMiddleware(jwtManager))
	}
	{
		protected.GET("/chat/history/:user_id", chat.History)
		protected.POST("/reco/generate", reco.Generate)
		protected.GET("/reco/history/:user_id", reco.History)
		protected.POST("/reco/send-report", reco.SendReport)
	}
	return r
}

// newReportProcessor 创建报告投递管道；配置了 MinIO 时归档已发送的报告。
func newReportProcessor(ctx context.Context, cfg config.Config) *pipeline.ReportProcessor {
	sender := mailer.NewSMTPSender(cfg.SMTP)
	if !sender.Configured() {
		log.Warnf("未配置 SMTP 账号，/reco/send-report 将返回 503")
	}
	if cfg.MinIO.Endpoint == "" {
		return pipeline.NewReportProcessor(sender, nil)
	}
	archive, err := storage.NewReportArchive(ctx, cfg.MinIO)
	if err != nil {
		log.Error("初始化报告归档失败，报告将不会归档", err)
		return pipeline.NewReportProcessor(sender, nil)
	}
	return pipeline.NewReportProcessor(sender, archive)
}

func defaultProfile(c config.DefaultProfileConfig) model.Profile {
	age := c.Age
	weight := c.WeightKg
	height := c.HeightCm
	return model.Profile{
		Name:     c.Name,
		Age:      &age,
		WeightKg: &weight,
		HeightCm: &height,
		MainGoal: c.MainGoal,
		Lang:     c.Lang,
	}
}
