package church

// ActionDescriptor is a caller-facing description of one available transition.
type ActionDescriptor struct {
	ChurchID     string
	From         Status
	TargetStatus Status
	Label        string
	RequiresNote bool
}

// NextActions derives the actions role can take on a church in status.
// Order follows the table.
func (t Table) NextActions(churchID string, status Status, role Role) []ActionDescriptor {
	valid := t.ValidTransitions(status, role)
	actions := make([]ActionDescriptor, 0, len(valid))
	for _, tr := range valid {
		actions = append(actions, ActionDescriptor{
			ChurchID:     churchID,
			From:         tr.From,
			TargetStatus: tr.To,
			Label:        tr.Label,
			RequiresNote: tr.RequiresNote,
		})
	}
	return actions
}
