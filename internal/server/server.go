package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cinemind/internal/model"
	"cinemind/internal/pipeline"
	"cinemind/internal/service"
)

const maxUploadBytes = 8 << 20

// Productions is the production service as seen by the HTTP layer.
type Productions interface {
	Start(ctx context.Context, in model.StoryInput) (string, error)
	Rerun(ctx context.Context, id string) error
	Get(id string) (pipeline.Snapshot, error)
	List() []pipeline.Snapshot
	RetryImage(ctx context.Context, id string, index int) error
}

type Tools struct {
	Script     einotool.InvokableTool
	Storyboard einotool.InvokableTool
}

// NewRouter 注册全部路由
func NewRouter(p Productions, tools Tools, logger logrus.FieldLogger) *gin.Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	if gin.Mode() == gin.DebugMode {
		router.Use(gin.Logger())
	}

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := router.Group("/api")
	api.GET("/options", handleOptions)
	api.GET("/productions", handleList(p))
	api.POST("/productions", handleStart(p))
	api.POST("/productions/upload", handleUpload(p))
	api.GET("/productions/:id", handleGet(p))
	api.POST("/productions/:id/rerun", handleRerun(p))
	api.POST("/productions/:id/images/:index/retry", handleRetryImage(p))

	if tools.Script != nil {
		router.POST("/tools/script-generate", handleTool(tools.Script))
	}
	if tools.Storyboard != nil {
		router.POST("/tools/storyboard-image", handleTool(tools.Storyboard))
	}
	return router
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Round(time.Millisecond),
		}).Debug("http request")
	}
}

// statusFor 将业务错误映射为HTTP状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, pipeline.ErrEmptyContent), errors.Is(err, pipeline.ErrImageIndex):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrRunInProgress), errors.Is(err, pipeline.ErrAssetsBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWith(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// handleOptions 返回可选的模式、语言与角色
func handleOptions(c *gin.Context) {
	roles := make([]model.RoleInfo, 0, len(model.Roles))
	for _, r := range model.Roles {
		roles = append(roles, r.Info())
	}
	c.JSON(http.StatusOK, gin.H{
		"modes":      model.Modes,
		"languages":  model.Languages,
		"inputTypes": []model.InputType{model.InputLogline, model.InputScript},
		"roles":      roles,
	})
}

type productionSummary struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Mode               model.Mode      `json:"mode"`
	IsProcessing       bool            `json:"isProcessing"`
	IsGeneratingImages bool            `json:"isGeneratingImages"`
	ActiveRole         model.AgentRole `json:"activeRole,omitempty"`
	Error              string          `json:"error,omitempty"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// handleList 列出全部制作
func handleList(p Productions) gin.HandlerFunc {
	return func(c *gin.Context) {
		snaps := p.List()
		out := make([]productionSummary, 0, len(snaps))
		for _, s := range snaps {
			out = append(out, productionSummary{
				ID:                 s.Package.ID,
				Title:              s.Package.Input.Title,
				Mode:               s.Package.Input.Mode,
				IsProcessing:       s.IsProcessing,
				IsGeneratingImages: s.IsGeneratingImages,
				ActiveRole:         s.ActiveRole,
				Error:              s.Error,
				UpdatedAt:          s.UpdatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"productions": out})
	}
}

// handleStart 创建制作并在后台启动流水线
func handleStart(p Productions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in model.StoryInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		id, err := p.Start(c.Request.Context(), in)
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"id": id})
	}
}

// handleUpload 上传剧本文件并启动流水线，仅支持纯文本
func handleUpload(p Productions) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
			return
		}
		switch strings.ToLower(filepath.Ext(fh.Filename)) {
		case ".pdf", ".docx", ".doc":
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": fmt.Sprintf("%s: only plain-text scripts are accepted", fh.Filename)})
			return
		}
		if fh.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		inputType := c.DefaultPostForm("inputType", string(model.InputScript))
		rewrite, _ := strconv.ParseBool(c.PostForm("rewrite"))
		in := model.StoryInput{
			Title:     c.PostForm("title"),
			Genre:     c.PostForm("genre"),
			Mode:      model.Mode(c.PostForm("mode")),
			Language:  c.PostForm("language"),
			Content:   strings.ToValidUTF8(string(raw), ""),
			InputType: model.InputType(inputType),
			Rewrite:   rewrite,
		}
		if in.Title == "" {
			in.Title = strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
		}
		id, err := p.Start(c.Request.Context(), in)
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"id": id, "chars": len([]rune(in.Content))})
	}
}

// handleGet 返回制作快照，供展示层轮询
func handleGet(p Productions) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := p.Get(c.Param("id"))
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// handleRerun 以原输入重新运行
func handleRerun(p Productions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := p.Rerun(c.Request.Context(), id); err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"id": id})
	}
}

// handleRetryImage 重新生成单张分镜
func handleRetryImage(p Productions) gin.HandlerFunc {
	return func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
			return
		}
		id := c.Param("id")
		if err := p.RetryImage(c.Request.Context(), id, index); err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"id": id, "index": index})
	}
}

// handleTool 直接调用eino工具，请求体即工具参数
func handleTool(tool einotool.InvokableTool) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil || len(body) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		result, err := tool.InvokableRun(c.Request.Context(), string(body))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json", []byte(result))
	}
}
