package server

// MessageType is the type tag of a websocket message.
type MessageType string

const (
	// Client to server messages
	MessageTypeStartHand MessageType = "start_hand"
	MessageTypeAction    MessageType = "action"
	MessageTypeRunBots   MessageType = "run_bots"
	MessageTypeAdvance   MessageType = "advance"
	MessageTypeSetBots   MessageType = "set_bots"
	MessageTypeRebuy     MessageType = "rebuy"
	MessageTypeInteract  MessageType = "interact"
	MessageTypeGetState  MessageType = "get_state"

	// Server to client messages
	MessageTypeState MessageType = "state"
	MessageTypeError MessageType = "error"
)

func (mt MessageType) String() string {
	return string(mt)
}
