package server

import (
	"encoding/json"
	"time"
)

// Message is the websocket envelope. Data holds one of the payloads below.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Request bodies, shared by the HTTP handlers and websocket messages.

type ActionData struct {
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

type SetBotsData struct {
	Count int `json:"count"`
}

type InteractData struct {
	Target string `json:"target"`
	Item   string `json:"item"`
}

// Responses

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
