package constants

const (
	// Route group prefixes. The reviewer group serves approvers and admins;
	// the admin group is admin-only.
	PublicAPIPrefix    = "/v1"
	ProtectedAPIPrefix = "/v1"
	ReviewerAPIPrefix  = "/v1/approver"
	AdminAPIPrefix     = "/v1/admin"
)
