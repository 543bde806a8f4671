package ui

import (
	"fmt"
	"strings"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

const (
	NoAccess          = "У вас нет прав на выполнение этой команды!"
	MenuShown         = "Команды выведены."
	ActionCanceled    = "Действие отменено."
	AskAddTags        = "Через пробел или запятую укажите теги, которые вы хотите добавить."
	AskRemoveTags     = "Через пробел или запятую напишите теги, которые вы хотите удалить."
	AskSignature      = "Напишите примечание."
	AskGroupPost      = "Напишите текст поста."
	SignatureUpdated  = "Примечание обновлено."
	PostCopied        = "Пост отправлен в группу."
	PostCopyFailed    = "Не удалось отправить пост в группу."
	NoTags            = "Теги еще не добавлены."
	ActionUnavailable = "Действие недоступно"
	ActionFailed      = "Не удалось выполнить действие"
	AdminRemoveUsage  = "Использование: /remove_admin <id>"
)

// TagList renders the catalog one tag per line under title.
func TagList(title string, catalog []model.Tag) string {
	if len(catalog) == 0 {
		return NoTags
	}
	var b strings.Builder
	b.WriteString(title)
	for _, tag := range catalog {
		b.WriteString("\n")
		b.WriteString(tag.Tag)
	}
	return b.String()
}

func AdminTagList(catalog []model.Tag) string {
	return TagList("Вот список имеющихся тегов:", catalog)
}

func PublicTagList(catalog []model.Tag) string {
	return TagList("Доступные категории:", catalog)
}

func TagsAdded(added []string) string {
	if len(added) == 0 {
		return "Не найдено ни одного корректного тега."
	}
	return "Теги добавлены: " + strings.Join(added, " ")
}

func TagsRemoved(removed []string) string {
	if len(removed) == 0 {
		return "Ни один из указанных тегов не найден."
	}
	return "Теги удалены: " + strings.Join(removed, " ")
}

func AdminAdded(id int64, name string) string {
	return fmt.Sprintf("Администратор %s (%d) добавлен.", name, id)
}

func AdminRemoved(id int64, removed bool) string {
	if !removed {
		return fmt.Sprintf("Администратор %d не найден.", id)
	}
	return fmt.Sprintf("Администратор %d удален.", id)
}
