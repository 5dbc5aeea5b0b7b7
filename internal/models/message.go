package models

import "time"

// ChatMessage is a message posted to a quote chat room.
type ChatMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	SenderID  int64     `json:"sender_id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

const MessageKindQuoteIntro = "quote_intro"

// DeviceToken is a push notification token of a user device.
type DeviceToken struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
}
