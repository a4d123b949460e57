package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forever-free1/GeneDB/storage"
	"github.com/forever-free1/GeneDB/watch"
)

// Engine 是 HTTP 层依赖的存储引擎能力
type Engine interface {
	Insert(sequence string) (*storage.InsertResult, error)
	Remove(sequence string) (*storage.RemoveResult, error)
	Search(sequence string) (int, []string, error)
	SearchResident(prefix string) ([]string, error)
	Print(mode storage.PrintMode) (string, error)
	FreeBlocks() string
	BufferIDs() []int
	Size() int
}

// ==================== Handler 定义 ====================

// Handler HTTP 请求处理器
type Handler struct {
	// 存储引擎
	engine Engine

	// 事件通知中心
	watchHub *watch.Hub
}

// NewHandler 创建新的 Handler
//
// 参数：
//   - engine: 存储引擎
//   - watchHub: 事件通知中心
//
// 返回：
//   - *Handler: Handler 实例
func NewHandler(engine Engine, watchHub *watch.Hub) *Handler {
	return &Handler{
		engine:   engine,
		watchHub: watchHub,
	}
}

// ==================== API 路由 ====================

// RegisterRoutes 注册所有路由
//
// 参数：
//   - router: Gin 引擎
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	// 健康检查
	router.GET("/health", h.HealthCheck)

	// 序列存储 API
	v1 := router.Group("/v1")
	{
		sequences := v1.Group("/sequences")
		{
			sequences.POST("", h.Insert)
			sequences.GET("", h.Search)
			sequences.DELETE("/:sequence", h.Remove)
		}

		// 树结构与存储状态
		v1.GET("/print", h.Print)

		// Watch API (SSE 长连接)
		v1.GET("/watch", h.Watch)
	}
}

// ==================== API 处理函数 ====================

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"size":   h.engine.Size(),
		"time":   time.Now().Unix(),
	})
}

// Insert 请求处理
// POST /v1/sequences
func (h *Handler) Insert(c *gin.Context) {
	// 解析请求体
	type InsertRequest struct {
		Sequence string `json:"sequence" binding:"required"`
	}

	var req InsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request: " + err.Error(),
		})
		return
	}

	// 写入存储
	res, err := h.engine.Insert(req.Sequence)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicateSequence):
			c.JSON(http.StatusConflict, gin.H{
				"error": "duplicate sequence",
			})
		case errors.Is(err, storage.ErrInvalidSequence), errors.Is(err, storage.ErrSequenceTooLong):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "insert failed: " + err.Error(),
			})
		}
		return
	}

	// 通知 Watch 客户端
	if h.watchHub != nil {
		h.watchHub.NotifyInsert(res.Sequence, res.Literal, res.Bytes)
	}

	// 返回成功
	c.JSON(http.StatusCreated, gin.H{
		"sequence": res.Sequence,
		"bytes":    res.Bytes,
		"literal":  res.Literal,
		"address":  res.Address,
	})
}

// Search 请求处理
// GET /v1/sequences?q=xxx
// q 以 $ 结尾表示精确匹配，否则为前缀搜索
// resident=true 时走驻留索引快速路径，不触达磁盘树，无节点访问计数
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")

	if c.Query("resident") == "true" {
		matches, err := h.engine.SearchResident(query)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "search failed: " + err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"matches": matches,
		})
		return
	}

	visited, matches, err := h.engine.Search(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "search failed: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"visited": visited,
		"matches": matches,
	})
}

// Remove 请求处理
// DELETE /v1/sequences/:sequence
func (h *Handler) Remove(c *gin.Context) {
	sequence := c.Param("sequence")

	res, err := h.engine.Remove(sequence)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrSequenceNotFound), errors.Is(err, storage.ErrInvalidSequence):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "sequence not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "remove failed: " + err.Error(),
			})
		}
		return
	}

	// 通知 Watch 客户端
	if h.watchHub != nil {
		h.watchHub.NotifyRemove(res.Sequence, res.Literal, res.Bytes)
	}

	// 返回成功
	c.JSON(http.StatusOK, gin.H{
		"sequence": res.Sequence,
		"bytes":    res.Bytes,
		"literal":  res.Literal,
	})
}

// Print 请求处理
// GET /v1/print?mode=plain|lengths|stats
func (h *Handler) Print(c *gin.Context) {
	var mode storage.PrintMode
	switch c.DefaultQuery("mode", "plain") {
	case "plain":
		mode = storage.PrintPlain
	case "lengths":
		mode = storage.PrintLengths
	case "stats":
		mode = storage.PrintStats
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown print mode",
		})
		return
	}

	rendering, err := h.engine.Print(mode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "print failed: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rendering":   rendering,
		"free_blocks": h.engine.FreeBlocks(),
		"buffer_ids":  h.engine.BufferIDs(),
	})
}

// ==================== Watch (SSE) ====================

// Watch 处理 Watch 请求
// GET /v1/watch?prefix=xxx
// 使用 Server-Sent Events (SSE) 实现长连接
func (h *Handler) Watch(c *gin.Context) {
	// 获取要监听的前缀
	prefix := c.DefaultQuery("prefix", "")

	// 设置响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// 注册 Watcher
	// 使用较大的缓冲区以支持高并发场景
	watcher := h.watchHub.Watch(prefix, 1000)
	defer h.watchHub.Unregister(watcher)

	// 创建客户端断开连接的检测
	clientGone := c.Request.Context().Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	// 开始推送事件
	c.Status(http.StatusOK)
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "streaming not supported",
		})
		return
	}

	// 发送初始连接消息
	fmt.Fprintf(c.Writer, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-clientGone:
			// 客户端断开连接
			return

		case event := <-watcher.Ch:
			// 发送事件
			data, err := watch.EventToJSON(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			flusher.Flush()

		case <-ticker.C:
			// 发送心跳，保持连接
			fmt.Fprintf(c.Writer, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

// ==================== 服务器启动 ====================

// Server HTTP 服务器
type Server struct {
	addr    string
	router  *gin.Engine
	handler *Handler
}

// NewServer 创建新的 Server
// gatherer 非 nil 时在 /metrics 暴露指标
func NewServer(addr string, engine Engine, watchHub *watch.Hub, gatherer prometheus.Gatherer) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	handler := NewHandler(engine, watchHub)
	handler.RegisterRoutes(router)

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return &Server{
		addr:    addr,
		router:  router,
		handler: handler,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	return s.router.Run(s.addr)
}

// ServeHTTP 实现 http.Handler 接口
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// StartTLS 启动 HTTPS 服务器
func (s *Server) StartTLS(certFile, keyFile string) error {
	return s.router.RunTLS(s.addr, certFile, keyFile)
}
