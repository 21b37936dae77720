package server

import "encoding/json"

const (
	MsgHello      = "hello"
	MsgJoin       = "join"
	MsgStart      = "start"
	MsgSwap       = "swap"
	MsgReset      = "reset"
	MsgState      = "state"
	MsgSwapResult = "swapResult"
	MsgError      = "error"
)

// Error kinds produced by the transport before a request reaches the game.
const (
	KindBadRequest  = "BadRequest"
	KindRateLimited = "RateLimited"
	KindUnavailable = "Unavailable"
)

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type WSOut struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type helloPayload struct {
	Addr string `json:"addr"`
}

type joinPayload struct {
	Addr      string `json:"addr"`
	TokenName string `json:"tokenName"`
}

// swapPayload uses pointers so that a missing field can be told apart from
// zero.
type swapPayload struct {
	Addr   string `json:"addr"`
	FromID *int   `json:"fromId"`
	ToID   *int   `json:"toId"`
	Amount *int64 `json:"amount"`
}

type SwapResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Msg   string `json:"msg,omitempty"`
}

type ErrorOut struct {
	Msg string `json:"msg"`
}
