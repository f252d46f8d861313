package echoapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/auth"
	"github.com/darasa/platform/core/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // origin policy is enforced by the CORS layer
	},
}

type wsApi struct {
	tokens *auth.TokenService
	hub    *realtime.Hub
	logger core.Logger
}

func registerWSAPI(g *echo.Group, tokens *auth.TokenService, hub *realtime.Hub, logger core.Logger) {
	api := wsApi{tokens: tokens, hub: hub, logger: logger}
	g.GET("/ws", api.connect)
}

// connect authenticates the handshake and upgrades the connection. The
// token comes from the Authorization header or, since browsers cannot set
// custom headers on a WebSocket handshake, from the `token` query
// parameter. A failed handshake is rejected outright; no anonymous
// connection is ever admitted.
func (api *wsApi) connect(ctx echo.Context) error {
	token, ok := handshakeToken(ctx.Request())
	if !ok {
		api.logger.Warn("websocket handshake without credentials",
			"correlation_id="+contextCorrelationID(ctx))
		return errNoToken
	}

	identity, err := api.tokens.VerifyAccess(token)
	if err != nil {
		api.logger.Warn(fmt.Sprintf("websocket handshake rejected: %v", err),
			"correlation_id="+contextCorrelationID(ctx))
		return authFailureError(err)
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		api.logger.Error("websocket upgrade failed", err)
		return nil // Upgrade already wrote the response
	}

	client := api.hub.Connect(conn, identity)
	go client.WritePump()
	go client.ReadPump()
	return nil
}

func handshakeToken(req *http.Request) (string, bool) {
	if token, ok := bearerToken(req); ok {
		return token, true
	}
	if token := req.URL.Query().Get("token"); token != "" {
		return token, true
	}
	return "", false
}
