package sender

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

var ErrMalformedPost = errors.New("post has neither author nor sender chat")

// Telegram HTML only requires these three; quotes stay literal so that text
// filters never see numeric entities.
var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Resolve derives the sender descriptor of a post. A bot author with an
// attached sender chat is the platform proxy for a group or channel.
func Resolve(post model.InboundPost) (model.SenderDescriptor, error) {
	author := post.Author
	chat := post.SenderChat

	if author == nil && chat == nil {
		return model.SenderDescriptor{}, ErrMalformedPost
	}

	if chat != nil && (author == nil || author.IsBot) {
		name := strings.TrimSpace(chat.Title)
		if name == "" && chat.Username != "" {
			name = "@" + chat.Username
		}
		if name == "" {
			name = strconv.FormatInt(chat.ID, 10)
		}
		return model.SenderDescriptor{
			ChatID:           strconv.FormatInt(chat.ID, 10),
			VerboseName:      name,
			IsGroupOrChannel: true,
		}, nil
	}

	name := strings.TrimSpace(author.FirstName + " " + author.LastName)
	if name == "" && author.Username != "" {
		name = "@" + author.Username
	}
	if name == "" {
		name = strconv.FormatInt(author.ID, 10)
	}

	return model.SenderDescriptor{
		ChatID:      strconv.FormatInt(author.ID, 10),
		VerboseName: name,
		IsUser:      true,
	}, nil
}

// UserLink renders the sender for HTML parse mode. Users get a tg:// mention,
// channels and groups only their name.
func UserLink(s model.SenderDescriptor) string {
	name := htmlEscaper.Replace(s.VerboseName)
	if !s.IsUser {
		return name
	}
	return fmt.Sprintf("<a href='tg://user?id=%s'>%s</a>", s.ChatID, name)
}
