package roomhandler

// RoomInfo is the REST view of a room: enough for a lobby browser, nothing
// gameplay-relevant (the seed never leaves the WS protocol).
type RoomInfo struct {
	RoomID      string `json:"roomId"`
	Players     int    `json:"players"`
	GameStarted bool   `json:"gameStarted"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
