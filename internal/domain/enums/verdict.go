package enums

type VerdictStatus string

const (
	VerdictValid       VerdictStatus = "VALID"
	VerdictWhitelisted VerdictStatus = "WHITELISTED"
	VerdictDeclined    VerdictStatus = "DECLINED"
)
