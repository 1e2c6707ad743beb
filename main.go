package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino-ext/components/model/ark"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"cinemind/internal/agent"
	"cinemind/internal/config"
	"cinemind/internal/genai"
	"cinemind/internal/pipeline"
	"cinemind/internal/server"
	"cinemind/internal/service"
	"cinemind/internal/tools"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logrus.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	logCloser, err := config.InitLogger(cfg.Logging)
	if err != nil {
		logrus.Fatalf("初始化日志失败: %v", err)
	}
	defer logCloser.Close()
	log := logrus.StandardLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化生成客户端
	client := genai.NewClientWithTimeout(cfg.GenAI.Timeout)
	client.Endpoint = cfg.GenAI.Endpoint
	client.APIKey = cfg.GenAI.APIKey
	client.Mock = cfg.GenAI.Mock
	client.Logger = log

	chatModel, textModel, err := newChatModel(ctx, cfg, client)
	if err != nil {
		log.Fatalf("初始化对话模型失败: %v", err)
	}

	crew, err := agent.NewCrew(ctx, agent.Config{
		ChatModel:       chatModel,
		Assets:          client,
		TextModel:       textModel,
		StructuredModel: cfg.Models.Structured,
		ImageModel:      cfg.Models.Image,
		Logger:          log,
	})
	if err != nil {
		log.Fatalf("初始化agent失败: %v", err)
	}

	orch := pipeline.New(crew, pipeline.Options{ImageConcurrency: cfg.Assets.ImageConcurrency, Logger: log})
	productions := service.NewProductionService(orch, log)

	gin.SetMode(cfg.Server.GinMode)
	router := server.NewRouter(productions, server.Tools{
		Script:     tools.NewScriptTool(crew),
		Storyboard: tools.NewStoryboardTool(crew),
	}, log)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": cfg.Server.Addr, "backend": cfg.Models.TextBackend, "mock": cfg.GenAI.Mock}).Info("服务器启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("关闭服务器...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// 等待后台流水线与分镜生成结束
		if err := productions.Wait(shutdownCtx); err != nil {
			log.WithError(err).Warn("仍有制作未完成")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("服务器异常退出: %v", err)
	}
	log.Info("服务器已关闭")
}

// newChatModel 根据配置选择文本agent使用的对话模型，返回模型及其模型ID
func newChatModel(ctx context.Context, cfg *config.Config, client *genai.Client) (einomodel.BaseChatModel, string, error) {
	if cfg.Models.TextBackend != config.BackendArk {
		return genai.NewChatModel(client, cfg.Models.Text), cfg.Models.Text, nil
	}
	cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:     cfg.Ark.APIKey,
		Region:     cfg.Ark.Region,
		HTTPClient: &http.Client{Timeout: cfg.GenAI.Timeout},
		Model:      cfg.Ark.Model,
	})
	if err != nil {
		return nil, "", err
	}
	return cm, cfg.Ark.Model, nil
}
