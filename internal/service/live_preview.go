package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"quizsmith/internal/util"
	"quizsmith/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 16384,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LiveFrame 客户端发送的编辑器状态，Seq 原样回传，便于客户端丢弃过期结果
type LiveFrame struct {
	Seq int64 `json:"seq"`
	PreviewRequest
}

// LiveResult 渲染结果或错误
type LiveResult struct {
	Seq    int64             `json:"seq"`
	HTML   string            `json:"html,omitempty"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// liveSession 一个实时预览连接。读协程只保留最新一帧，渲染协程按限速取帧，
// 因此快速连续的编辑只会渲染最后的状态。
type liveSession struct {
	conn    *websocket.Conn
	preview *PreviewService
	userID  uint
	latest  chan LiveFrame
	send    chan LiveResult
	limiter *rate.Limiter
}

// ServeLivePreview 升级为 websocket 并处理实时预览，直到连接关闭
func (s *PreviewService) ServeLivePreview(w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Uint("userId", userID))
		return
	}

	session := &liveSession{
		conn:    conn,
		preview: s,
		userID:  userID,
		latest:  make(chan LiveFrame, 1),
		send:    make(chan LiveResult, 8),
		limiter: rate.NewLimiter(rate.Limit(10), 3), // 每秒最多渲染10次
	}

	ctx, cancel := context.WithCancel(context.Background())
	go session.renderLoop(ctx)
	go session.writePump()
	session.readPump()
	cancel()
}

func (c *liveSession) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.Uint("userId", c.userID))
			}
			return
		}

		var frame LiveFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.push(LiveResult{Error: "malformed frame: " + err.Error()})
			continue
		}

		// 替换尚未渲染的旧帧
		select {
		case <-c.latest:
		default:
		}
		c.latest <- frame
	}
}

func (c *liveSession) renderLoop(ctx context.Context) {
	defer close(c.send)
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-c.latest:
			if err := c.limiter.Wait(ctx); err != nil {
				return
			}
			html, err := c.preview.Render(ctx, PurposeLive, frame.PreviewRequest)
			result := LiveResult{Seq: frame.Seq, HTML: html}
			if err != nil {
				var verr *util.ValidationError
				if errors.As(err, &verr) {
					result.Error = "validation failed"
					result.Fields = verr.Fields
				} else {
					logger.Log.Error("Live preview render failed", zap.Error(err), zap.Uint("userId", c.userID))
					result.Error = "render failed"
				}
			}
			c.push(result)
		}
	}
}

// push 非阻塞发送，写端积压时丢弃结果。只在 readPump 和 renderLoop 中调用，两者都先于 send 关闭返回
func (c *liveSession) push(result LiveResult) {
	select {
	case c.send <- result:
	default:
	}
}

func (c *liveSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case result, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(result); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
