package ws

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/vizy/internal/domain/job"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/logging"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/monitoring"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one frame sent to the client.
type Message struct {
	Type      string    `json:"type"`
	Job       string    `json:"job,omitempty"`
	Content   string    `json:"content,omitempty"`
	Message   string    `json:"message,omitempty"`
	State     job.State `json:"state,omitempty"`
	ExitCode  *int      `json:"exit_code,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

type inbound struct {
	Type string `json:"type"`
}

// Handler manages WebSocket connections
type Handler struct {
	runner  *job.Runner
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(runner *job.Runner, metrics *monitoring.Metrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{runner: runner, metrics: metrics, logger: logger.Named("ws")}
}

// HandleConnection upgrades the request and streams the current job until
// it ends or the client goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	if err := h.send(conn, Message{Type: "system", Message: "connected"}); err != nil {
		return
	}

	j, err := h.runner.Current()
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	backlog, chunks, cancel := j.Subscribe()
	defer cancel()

	pings, gone := h.readLoop(conn)

	if err := h.send(conn, Message{Type: "output", Job: j.ID, Content: string(backlog)}); err != nil {
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				h.complete(conn, j)
				return
			}
			if err := h.send(conn, Message{Type: "output", Job: j.ID, Content: string(chunk)}); err != nil {
				return
			}
		case <-pings:
			if err := h.send(conn, Message{Type: "pong"}); err != nil {
				return
			}
		case <-gone:
			return
		case <-ctx.Done():
			return
		}
	}
}

// readLoop reads client frames until the connection fails. Pings are
// forwarded; the returned gone channel is closed when reading stops.
func (h *Handler) readLoop(conn *websocket.Conn) (<-chan struct{}, <-chan struct{}) {
	pings := make(chan struct{}, 1)
	gone := make(chan struct{})

	go func() {
		defer close(gone)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg inbound
			if err := sonic.Unmarshal(data, &msg); err != nil {
				continue
			}
			if h.metrics != nil {
				h.metrics.RecordWSMessage("in", msg.Type)
			}
			if msg.Type == "ping" {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()
	return pings, gone
}

func (h *Handler) complete(conn *websocket.Conn, j *job.Job) {
	<-j.Done()
	code := j.ExitCode()
	msg := Message{Type: "complete", Job: j.ID, State: j.State(), ExitCode: &code}
	if err := j.Err(); err != nil {
		msg.Message = err.Error()
	}
	if err := h.send(conn, msg); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (h *Handler) send(conn *websocket.Conn, msg Message) error {
	msg.Timestamp = time.Now().Unix()
	data, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Debug("WebSocket write failed", zap.Error(err))
		return err
	}
	if h.metrics != nil {
		h.metrics.RecordWSMessage("out", msg.Type)
	}
	return nil
}

func (h *Handler) sendError(conn *websocket.Conn, msg string) error {
	return h.send(conn, Message{Type: "error", Message: msg})
}
