package ui

const (
	ButtonAddTags    = "Добавить теги"
	ButtonRemoveTags = "Удалить теги"
	ButtonListTags   = "Список тегов"
	ButtonSignature  = "Добавить подпись"
	ButtonGroupPost  = "Отправить пост в группу"
	ButtonCancel     = "Отмена"
)

func AdminMenu() [][]string {
	return [][]string{
		{ButtonAddTags, ButtonRemoveTags},
		{ButtonListTags, ButtonSignature},
		{ButtonGroupPost},
	}
}

func CancelMenu() [][]string {
	return [][]string{{ButtonCancel}}
}
