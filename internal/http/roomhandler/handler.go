package roomhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coadwithAVI/aero-flight-sub000/internal/services/rooms"
)

type Handler struct {
	store rooms.IRoomStore
}

func New(store rooms.IRoomStore) *Handler { return &Handler{store: store} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/rooms", h.list)
	r.GET("/rooms/:id", h.info)
}

// list returns the active rooms for lobby browsers. Codes are public here;
// joining a started room is still refused at the protocol layer.
func (h *Handler) list(c *gin.Context) {
	all := h.store.ListRooms()
	out := make([]RoomInfo, 0, len(all))
	for _, dto := range all {
		out = append(out, toRoomInfo(dto))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) info(c *gin.Context) {
	dto, ok := h.store.GetRoom(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: rooms.ErrRoomNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, toRoomInfo(dto))
}

func toRoomInfo(dto rooms.RoomDTO) RoomInfo {
	return RoomInfo{
		RoomID:      dto.RoomID,
		Players:     len(dto.Players),
		GameStarted: dto.GameStarted,
	}
}
