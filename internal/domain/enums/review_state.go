package enums

type RecordStatus string

const (
	RecordStatusPending  RecordStatus = "PENDING"
	RecordStatusDeclined RecordStatus = "DECLINED"
	RecordStatusAccepted RecordStatus = "ACCEPTED"
)

type ReviewState string

const (
	ReviewStatePending               ReviewState = "PENDING"
	ReviewStateAwaitingTagSelection  ReviewState = "AWAITING_TAG_SELECTION"
	ReviewStateTagToggled            ReviewState = "TAG_TOGGLED"
	ReviewStateReadyToPublish        ReviewState = "READY_TO_PUBLISH"
	ReviewStatePublished             ReviewState = "PUBLISHED"
	ReviewStateAwaitingDeclineReason ReviewState = "AWAITING_DECLINE_REASON"
	ReviewStateDeclined              ReviewState = "DECLINED"
)

func (s ReviewState) Terminal() bool {
	return s == ReviewStatePublished || s == ReviewStateDeclined
}

// Tagging covers the two interchangeable tag-selection substates.
func (s ReviewState) Tagging() bool {
	return s == ReviewStateAwaitingTagSelection || s == ReviewStateTagToggled
}
