package api

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"truco-service/internal/config"
	"truco-service/internal/middleware"
	"truco-service/internal/service"
	"truco-service/internal/service/room"
	"truco-service/internal/ws"
	"truco-service/pkg/response"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize    = 20
	maxPageSize        = 100
	defaultBoardLength = 10
)

type Handler struct {
	services *service.Container
}

// NewRouter builds the engine with recovery, request logging and CORS.
func NewRouter(conf config.ServerConfig, services *service.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(corsConfig(conf.CorsOrigins)))
	RegisterRoutes(r, services)
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Game, services.Signer)
	authed := middleware.AuthRequired(services.Signer)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/rooms", handler.CreateRoom)
		v1.GET("/rooms", handler.ListRooms)
		v1.GET("/rooms/:code", handler.GetRoom)
		v1.POST("/rooms/:code/join", handler.JoinRoom)
		v1.GET("/rooms/:code/history", handler.RoomHistory)

		seated := v1.Group("/rooms/:code")
		seated.Use(authed)
		{
			seated.POST("/bots", handler.AddBot)
			seated.POST("/leave", handler.LeaveRoom)
			seated.GET("/state", handler.RoomState)
		}

		v1.POST("/match", handler.QuickMatch)
		v1.GET("/leaderboard", handler.Leaderboard)
	}

	r.GET("/ws/room/:code", wsHandler.HandleRoomWS)
}

type createRoomBody struct {
	GameType string `json:"gameType"`
	Password string `json:"password"`
}

type joinRoomBody struct {
	Name     string `json:"name" binding:"required,max=32"`
	Password string `json:"password"`
}

type quickMatchBody struct {
	Name string `json:"name" binding:"required,max=32"`
}

type joinRoomResult struct {
	Room   room.Room   `json:"room"`
	Player room.Player `json:"player"`
	Token  string      `json:"token"`
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var body createRoomBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	gameType := room.GameType(strings.ToLower(strings.TrimSpace(body.GameType)))
	if gameType == "" {
		gameType = room.GameTypeTruco
	}

	rm, err := h.services.Rooms.Create(gameType, body.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, rm)
}

func (h *Handler) ListRooms(c *gin.Context) {
	response.Success(c, gin.H{"items": h.services.Rooms.List()})
}

func (h *Handler) GetRoom(c *gin.Context) {
	rm, err := h.services.Rooms.Get(roomCode(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, rm)
}

func (h *Handler) JoinRoom(c *gin.Context) {
	var body joinRoomBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		response.Error(c, http.StatusBadRequest, "name is required")
		return
	}

	rm, player, err := h.services.Rooms.Join(roomCode(c), name, body.Password)
	h.seatIssued(c, rm, player, err)
}

// QuickMatch seats the caller at any public table still gathering players.
func (h *Handler) QuickMatch(c *gin.Context) {
	var body quickMatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		response.Error(c, http.StatusBadRequest, "name is required")
		return
	}

	rm, player, err := h.services.Match.QuickJoin(name)
	h.seatIssued(c, rm, player, err)
}

func (h *Handler) seatIssued(c *gin.Context, rm room.Room, player room.Player, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	token, err := h.services.Signer.GenerateSeatToken(player.ID, rm.Code)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, joinRoomResult{Room: rm, Player: player, Token: token})
}

// AddBot fills the lowest open seat with a bot. Only a seated player may do it.
func (h *Handler) AddBot(c *gin.Context) {
	code := roomCode(c)
	if !h.seated(c, code) {
		return
	}
	rm, player, err := h.services.Rooms.AddBot(code)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"room": rm, "player": player})
}

func (h *Handler) LeaveRoom(c *gin.Context) {
	rm, err := h.services.Game.Leave(roomCode(c), playerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, rm)
}

func (h *Handler) RoomState(c *gin.Context) {
	view, err := h.services.Game.State(roomCode(c), playerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, view)
}

func (h *Handler) RoomHistory(c *gin.Context) {
	if h.services.History == nil {
		response.Error(c, http.StatusServiceUnavailable, "history is disabled")
		return
	}
	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := parsePositiveIntQuery(c, "size", defaultPageSize)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	result, err := h.services.History.ListHands(c.Request.Context(), roomCode(c), page, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, response.Page{
		Items: result.Items,
		Total: result.Total,
		Page:  page,
		Size:  size,
	})
}

func (h *Handler) Leaderboard(c *gin.Context) {
	if h.services.Leaderboard == nil {
		response.Error(c, http.StatusServiceUnavailable, "leaderboard is disabled")
		return
	}
	limit, err := parsePositiveIntQuery(c, "limit", defaultBoardLength)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	entries, err := h.services.Leaderboard.Top(c.Request.Context(), int64(limit))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"items": entries})
}

func (h *Handler) seated(c *gin.Context, code string) bool {
	rm, err := h.services.Rooms.Get(code)
	if err != nil {
		h.fail(c, err)
		return false
	}
	if _, ok := rm.SeatOf(playerID(c)); !ok {
		response.Error(c, http.StatusForbidden, "not seated in this room")
		return false
	}
	return true
}

func roomCode(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("code")))
}

func playerID(c *gin.Context) string {
	return c.GetString(middleware.ContextPlayerIDKey)
}

func parsePositiveIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return parsed, nil
}
