package model

import "github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"

type InlineButton struct {
	Text string
	Data string
}

type Keyboard [][]InlineButton

type OutgoingMessage struct {
	Kind           enums.ContentKind
	Body           string
	MediaID        string
	Keyboard       Keyboard
	DisablePreview bool
	// Plain sends the body without HTML parsing.
	Plain bool
}
