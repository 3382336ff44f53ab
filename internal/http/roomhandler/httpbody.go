package roomhandler

import "moviedrawgo/internal/services/room"

type CreateRoomBody struct {
	HostID   string `json:"host_id"   binding:"required"        example:"user123"`
	HostName string `json:"host_name" binding:"required,max=64" example:"Hana"`
} // @name CreateRoomRequest

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type HistoryQuery struct {
	UserID string `form:"user_id"          binding:"required"`
	Limit  int    `form:"limit,default=20" binding:"gte=0,lte=100"`
	Skip   int    `form:"skip,default=0"   binding:"gte=0"`
} // @name HistoryQuery

type HistoryResponse struct {
	Items []room.HistoryEntry `json:"items"`
	Total int                 `json:"total"`
} // @name HistoryResponse
