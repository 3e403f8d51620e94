package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/metrics"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

const writeWait = 10 * time.Second

type WSHandler struct {
	interviews services.InterviewService
	driver     services.InterviewDriver
	metrics    *metrics.Recorder
	log        logrus.FieldLogger
	upgrader   websocket.Upgrader
	now        func() time.Time
}

func NewWSHandler(interviews services.InterviewService, driver services.InterviewDriver, m *metrics.Recorder, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		interviews: interviews,
		driver:     driver,
		metrics:    m,
		log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
}

// wsConn serializes writes; the turn loop and the deadline can both send.
type wsConn struct {
	c         *websocket.Conn
	mu        sync.Mutex
	closeOnce sync.Once
}

func (w *wsConn) ReadJSON(v any) error { return w.c.ReadJSON(v) }

func (w *wsConn) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(writeWait))
	return w.c.WriteJSON(v)
}

func (w *wsConn) Close() error {
	var err error
	w.closeOnce.Do(func() {
		_ = w.c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = w.c.Close()
	})
	return err
}

func (h *WSHandler) InterviewWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader already wrote the response
		return
	}
	wc := &wsConn{c: conn}
	defer wc.Close()

	jobID, resumeID := c.Param("job_id"), c.Param("resume_id")
	ctx := c.Request.Context()

	opened, err := h.interviews.Open(ctx, jobID, resumeID, h.now())
	if err != nil {
		h.reject(wc, err, jobID, resumeID)
		return
	}

	if err := h.driver.Run(ctx, wc, opened); err != nil {
		h.log.WithError(err).WithField("session_id", opened.Record.SessionID).Error("interview driver stopped")
	}
}

func (h *WSHandler) reject(wc *wsConn, err error, jobID, resumeID string) {
	msg := services.ErrorMessage{Error: utils.PublicMessage(err)}
	var notOpen *services.WindowNotOpenError
	if errors.As(err, &notOpen) {
		msg.StartsAt = notOpen.StartsAt.UTC().Format(time.RFC3339)
	}

	h.metrics.SessionRejected(strings.ToLower(string(utils.CodeOf(err))))
	h.log.WithError(err).WithFields(logrus.Fields{"job_id": jobID, "resume_id": resumeID}).Warn("interview connection rejected")

	_ = wc.WriteJSON(msg)
}
