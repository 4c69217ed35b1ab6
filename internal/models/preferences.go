package models

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Layout string

const (
	LayoutGrid Layout = "grid"
	LayoutList Layout = "list"
)

func IsValidLayout(l Layout) bool {
	return l == LayoutGrid || l == LayoutList
}

type Preferences struct {
	SidebarOpen bool   `json:"sidebar_open"`
	Theme       Theme  `json:"theme"`
	Layout      Layout `json:"layout"`
}

// DefaultPreferences matches what a fresh console shows.
func DefaultPreferences() Preferences {
	return Preferences{
		SidebarOpen: true,
		Theme:       ThemeDark,
		Layout:      LayoutList,
	}
}
