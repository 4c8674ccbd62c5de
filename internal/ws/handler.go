package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"truco-service/internal/middleware"
	"truco-service/internal/service/game"
	pkgAuth "truco-service/pkg/auth"
	appErr "truco-service/pkg/errors"
	"truco-service/pkg/logger"
	"truco-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readLimit  = 1 << 16
	pongWait   = 60 * time.Second
	pingEvery  = 25 * time.Second
	writeWait  = 10 * time.Second
	replyQueue = 8
)

type Handler struct {
	gameSvc *game.Service
	signer  *pkgAuth.Signer
}

func NewHandler(gameSvc *game.Service, signer *pkgAuth.Signer) *Handler {
	return &Handler{gameSvc: gameSvc, signer: signer}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // seat tokens gate the socket
	},
}

// HandleRoomWS serves /ws/room/:code?token=<seat token>.
func (h *Handler) HandleRoomWS(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))

	token, err := getTokenFromRequest(c)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, err.Error())
		return
	}
	claims, err := h.signer.ParseSeatToken(token)
	if err != nil || claims.RoomCode != code {
		response.Error(c, http.StatusUnauthorized, "invalid token")
		return
	}

	rt, err := h.gameSvc.GetRuntime(code)
	if err != nil {
		if errors.Is(err, appErr.ErrRoomNotFound) {
			response.Error(c, http.StatusNotFound, "room not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to load room")
		return
	}
	outbound, err := rt.Subscribe(claims.PlayerID)
	if err != nil {
		response.Error(c, http.StatusForbidden, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		rt.Unsubscribe(claims.PlayerID, outbound)
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	logger.Log.Info("New WebSocket connection",
		zap.String("room", code),
		zap.String("player", claims.PlayerID),
	)

	cl := newClient(conn, claims.PlayerID, rt, outbound)
	cl.run()
}

func getTokenFromRequest(c *gin.Context) (string, error) {
	if token := strings.TrimSpace(c.Query("token")); token != "" {
		return token, nil
	}
	return middleware.ExtractBearerToken(c.GetHeader("Authorization"))
}

type incomingMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// client owns one socket. Only writePump writes to conn; readPump hands
// error replies over through replies.
type client struct {
	conn     *websocket.Conn
	playerID string
	rt       *game.RoomRuntime
	outbound <-chan game.OutgoingMessage
	replies  chan game.OutgoingMessage
	done     chan struct{}
}

func newClient(conn *websocket.Conn, playerID string, rt *game.RoomRuntime, outbound <-chan game.OutgoingMessage) *client {
	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &client{
		conn:     conn,
		playerID: playerID,
		rt:       rt,
		outbound: outbound,
		replies:  make(chan game.OutgoingMessage, replyQueue),
		done:     make(chan struct{}),
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.rt.Unsubscribe(c.playerID, c.outbound)
		c.conn.Close()
	}()

	for {
		mt, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.Log.Info("WS read error", zap.Error(err), zap.String("player", c.playerID), zap.String("room", c.rt.Code()))
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var incoming incomingMessage
		if err := json.Unmarshal(message, &incoming); err != nil {
			c.reply("", "invalid payload")
			continue
		}
		if incoming.Type == "" {
			continue
		}

		action, err := game.DecodeAction(incoming.Type, incoming.Data)
		if err != nil {
			c.reply(game.ActionType(incoming.Type), err.Error())
			continue
		}
		if err := c.rt.HandleAction(c.playerID, action); err != nil {
			c.reply(action.Type(), err.Error())
		}
	}
}

func (c *client) reply(action game.ActionType, msg string) {
	select {
	case c.replies <- game.OutgoingMessage{Type: game.MsgError, Data: game.ErrorPayload{Action: action, Message: msg}}:
	default:
		logger.Log.Warn("ws reply queue full", zap.String("player", c.playerID), zap.String("room", c.rt.Code()))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.outbound:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced"), time.Now().Add(writeWait))
				return
			}
			if !c.write(msg) {
				return
			}
		case msg := <-c.replies:
			if !c.write(msg) {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) write(msg game.OutgoingMessage) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		logger.Log.Info("WS write error", zap.Error(err), zap.String("player", c.playerID), zap.String("room", c.rt.Code()))
		return false
	}
	return true
}
