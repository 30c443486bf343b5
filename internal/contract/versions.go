package contract

import (
	"fmt"
	"time"
)

// AppendApprovalVersion pushes an approval record and appends an approval
// entry to the versioning ledger, snapshotting the current plan, intent,
// and approved controls by value. Returns the new version number.
//
// The caller drives the subsequent state transition; this method only
// grows the ledger.
func (e *Engine) AppendApprovalVersion(c *Contract, actor string) (int, error) {
	now := time.Now().UTC()
	c.Approvals = append(c.Approvals, Approval{At: now, Approver: actor})

	version := len(c.Versions) + 1
	c.Versions = append(c.Versions, Version{
		Version:          version,
		Kind:             VersionKindApproval,
		At:               now,
		Note:             fmt.Sprintf("approved by %s", actor),
		ControlsApproved: append([]string(nil), c.ControlsApproved...),
		Plan:             c.PlanStructured.Clone(),
		PlanText:         c.PlanText,
		Intent:           c.Intent,
	})
	c.ActiveVersion = &version

	if err := e.RecordHistory(c, "VERSION",
		fmt.Sprintf("version %d recorded (approval)", version), actor); err != nil {
		return 0, err
	}
	return version, nil
}

// AppendRewindVersion appends a rewind entry to the ledger with the same
// append discipline as approvals. The note references the previous active
// version being superseded. Returns the new version number and the
// superseded one (0 if none existed).
func (e *Engine) AppendRewindVersion(c *Contract, actor string) (version, previous int, err error) {
	now := time.Now().UTC()

	if c.ActiveVersion != nil {
		previous = *c.ActiveVersion
	}

	note := "rewind (no prior version)"
	if previous > 0 {
		note = fmt.Sprintf("rewind superseding version %d", previous)
	}

	version = len(c.Versions) + 1
	c.Versions = append(c.Versions, Version{
		Version:          version,
		Kind:             VersionKindRewind,
		At:               now,
		Note:             note,
		ControlsApproved: append([]string(nil), c.ControlsApproved...),
		Plan:             c.PlanStructured.Clone(),
		PlanText:         c.PlanText,
		Intent:           c.Intent,
	})
	c.ActiveVersion = &version

	if err = e.RecordHistory(c, "VERSION",
		fmt.Sprintf("version %d recorded (rewind)", version), actor); err != nil {
		return 0, 0, err
	}
	return version, previous, nil
}
