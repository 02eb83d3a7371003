package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/codestreamer/backend/internal/app"
	"github.com/codestreamer/backend/internal/config"
	"github.com/codestreamer/backend/internal/core"
	"github.com/codestreamer/backend/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the WS endpoint: upgrades, pumps, and intent dispatch.
// Session rules live behind the coordinator; this layer only decodes.
type Controller struct {
	Coord    *app.Coordinator
	cfg      *config.Config
	upgrader websocket.Upgrader
	validate *validator.Validate
	limiter  *RateLimiter
}

func NewController(cfg *config.Config, coord *app.Coordinator) *Controller {
	return &Controller{
		Coord: coord,
		cfg:   cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return cfg.AllowsOrigin(r.Header.Get("Origin"))
			},
		},
		validate: validator.New(),
		limiter:  NewRateLimiter(10, time.Minute),
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleWS upgrades the request and starts the connection's pumps. Each
// connection gets a fresh handle, never reused while it lives; the client
// token cookie is only carried along for log correlation and throttling.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	id := domain.ConnID(uuid.NewString())
	token := c.GetString("client_token")
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("client", token).Msg("new WS connection")

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	ctl.Coord.Connect(id, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, id, token, conn)
}
