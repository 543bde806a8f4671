package model

import "time"

type Admin struct {
	ID          int64
	DisplayName string
	Signature   string
	CreatedAt   time.Time
}

type Tag struct {
	ID  int64
	Tag string
}

type Ban struct {
	SenderID string
	BannedAt time.Time
}
