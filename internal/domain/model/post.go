package model

import "github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"

// RawUser is the platform account that authored a message.
type RawUser struct {
	ID        int64
	IsBot     bool
	FirstName string
	LastName  string
	Username  string
}

// RawChat is the "posting as" identity attached when a channel or group writes.
type RawChat struct {
	ID       int64
	Title    string
	Username string
}

type InboundPost struct {
	ChatID     int64
	MessageID  int
	Kind       enums.ContentKind
	Body       string
	PlainText  string
	MediaID    string
	Author     *RawUser
	SenderChat *RawChat
}

type SenderDescriptor struct {
	ChatID           string `json:"chat_id"`
	VerboseName      string `json:"verbose_name"`
	IsUser           bool   `json:"is_user"`
	IsGroupOrChannel bool   `json:"is_group_or_channel"`
}
