package enums

type ContentKind string

const (
	ContentKindText      ContentKind = "text"
	ContentKindPhoto     ContentKind = "photo"
	ContentKindVideo     ContentKind = "video"
	ContentKindDocument  ContentKind = "document"
	ContentKindAnimation ContentKind = "animation"
)

func (k ContentKind) Valid() bool {
	switch k {
	case ContentKindText, ContentKindPhoto, ContentKindVideo, ContentKindDocument, ContentKindAnimation:
		return true
	default:
		return false
	}
}

// IsMedia reports whether the body travels as a caption next to a file.
func (k ContentKind) IsMedia() bool {
	return k.Valid() && k != ContentKindText
}
