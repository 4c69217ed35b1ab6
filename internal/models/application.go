package models

type ApplicationStatus string

const (
	ApplicationStatusActive      ApplicationStatus = "active"
	ApplicationStatusMaintenance ApplicationStatus = "maintenance"
	ApplicationStatusOffline     ApplicationStatus = "offline"
)

// Badge describes how a status is rendered.
type Badge struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

func (s ApplicationStatus) Badge() Badge {
	switch s {
	case ApplicationStatusActive:
		return Badge{Label: "Active", Color: "emerald"}
	case ApplicationStatusMaintenance:
		return Badge{Label: "Maintenance", Color: "amber"}
	case ApplicationStatusOffline:
		return Badge{Label: "Offline", Color: "rose"}
	default:
		return Badge{Label: "Unknown", Color: "rose"}
	}
}

// Application is a read-only snapshot of a managed tenant application.
// TotalUsers >= ActiveUsers is expected but not enforced here.
type Application struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	URL         string            `json:"url,omitempty"`
	IconURL     *string           `json:"icon_url"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Type        string            `json:"type"`
	Status      ApplicationStatus `json:"status"`
	TotalUsers  int64             `json:"total_users"`
	ActiveUsers int64             `json:"count_active_users"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}
