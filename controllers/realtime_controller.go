package controllers

import (
	"net/http"
	"time"

	"github.com/ABFerraz00/mandacafe/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const pingPeriod = 25 * time.Second

type RealtimeController struct {
	Hub      *services.MenuHub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewRealtimeController(hub *services.MenuHub, allowOrigin string, logger *zap.Logger) *RealtimeController {
	return &RealtimeController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowOrigin == "*" || origin == "" || origin == allowOrigin
			},
		},
		logger: logger,
	}
}

// MenuWS streams dish change events to the client until it disconnects.
func (rc *RealtimeController) MenuWS(c *gin.Context) {
	conn, err := rc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		rc.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := &services.WSClient{Conn: conn}
	rc.Hub.Register(cl)

	done := make(chan struct{})
	defer close(done)

	go func() {
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := cl.Write(websocket.PingMessage, nil); err != nil {
					rc.Hub.Unregister(cl)
					return
				}
			}
		}
	}()

	// read loop ends on client close/error
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			rc.Hub.Unregister(cl)
			return
		}
	}
}
