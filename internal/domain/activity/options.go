package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	PanelID      string
	RunID        *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
