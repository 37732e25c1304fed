package workflow

import "github.com/sdghub/backend/dao/model"

// StatusLabel is derived from the gate timestamps on demand and never
// persisted, so the stamps stay the single source of truth.
type StatusLabel string

const (
	PendingFirstApproval  StatusLabel = "pending_first_approval"
	PendingSecondApproval StatusLabel = "pending_second_approval"
	PendingThirdApproval  StatusLabel = "pending_third_approval"
	FullyApproved         StatusLabel = "fully_approved"
	Rejected              StatusLabel = "rejected"
)

func DeriveStatus(p *model.Project) StatusLabel {
	switch {
	case p.RejectedAt != nil:
		return Rejected
	case p.ThirdApprovedAt != nil:
		return FullyApproved
	case p.SecondApprovedAt != nil:
		return PendingThirdApproval
	case p.FirstApprovedAt != nil:
		return PendingSecondApproval
	default:
		return PendingFirstApproval
	}
}
