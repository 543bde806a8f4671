package telegram

// State is the pending input of an administrator's private chat.
type State string

const (
	StateIdle             State = "IDLE"
	StateWaitingAddTags   State = "WAITING_ADD_TAGS"
	StateWaitingRemoveTag State = "WAITING_REMOVE_TAGS"
	StateWaitingSignature State = "WAITING_SIGNATURE"
	StateWaitingGroupPost State = "WAITING_GROUP_POST"
)
