package handlers

import (
	"log/slog"
	"net/http"

	"github.com/fieldmates/fieldmates/middleware"
	"github.com/fieldmates/fieldmates/notify"
	"github.com/fieldmates/fieldmates/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: ограничить Origin списком доверенных доменов перед продакшеном.
		return true
	},
}

type WebSocketHandler struct {
	hub              *notify.Hub
	groupPostService *services.GroupPostService
}

func NewWebSocketHandler(hub *notify.Hub, gps *services.GroupPostService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, groupPostService: gps}
}

// ServeWs обрабатывает GET /ws/group-posts/{groupPostID}: подписка на поток
// событий группового поста (приглашения, подтверждения, результаты). Права
// зрителя проверяются до апгрейда соединения: события несут идентификаторы
// участников, и невидимый пост не должен их раскрывать.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	postID, err := getIDFromURL(r, "groupPostID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to subscribe")
		return
	}

	if err := h.groupPostService.AuthorizeRead(r.Context(), currentProfileID, postID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP-ошибку клиенту.
		slog.Error("websocket upgrade failed", slog.Int("group_post_id", postID), slog.Any("error", err))
		return
	}

	h.hub.Subscribe(conn, postID)
}
