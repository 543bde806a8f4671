package model

import (
	"fmt"
	"time"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"
)

// CopyKey addresses one administrator's private copy. Message ids are only
// unique inside a chat, so the chat is part of the key.
type CopyKey struct {
	ChatID    int64
	MessageID int
}

func (k CopyKey) String() string {
	return fmt.Sprintf("%d:%d", k.ChatID, k.MessageID)
}

type WorkingRecord struct {
	Key          CopyKey
	PostID       string
	AdminID      int64
	Kind         enums.ContentKind
	Body         string
	MediaID      string
	OriginChatID int64
	Sender       SenderDescriptor
	Signature    string
	Tags         []string
	Status       enums.RecordStatus
	State        enums.ReviewState
	CreatedAt    time.Time
}

func (r WorkingRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r WorkingRecord) Clone() WorkingRecord {
	out := r
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	return out
}
