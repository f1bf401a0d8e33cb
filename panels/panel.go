// ABOUTME: Panel abstraction for the dashboard's independent data regions
// ABOUTME: Each panel finds its own sections in the payload and renders a text region
package panels

import (
	"github.com/harperreed/salesdash/models"
)

// PanelConfig describes a panel.
type PanelConfig struct {
	// ID is a unique identifier for the panel (e.g., "kpi", "funnel")
	ID string

	// Title is the display title for the region header
	Title string

	// Sections are the payload keys the panel reads. When none of them has
	// data the panel shows "no data" without being rendered.
	Sections []string

	// Primary panels are replaced by the offline message when loading fails
	// for good.
	Primary bool
}

// Panel renders one region from a payload.
type Panel interface {
	Config() PanelConfig
	Render(payload *models.Payload, width int) (string, error)
}

// RegionState is the outcome of rendering one panel.
type RegionState int

const (
	RegionOK RegionState = iota
	RegionEmpty
	RegionError
	RegionOffline
)

func (s RegionState) String() string {
	switch s {
	case RegionEmpty:
		return "empty"
	case RegionError:
		return "error"
	case RegionOffline:
		return "offline"
	default:
		return "ok"
	}
}

// Region is the rendered content of one panel.
type Region struct {
	ID    string
	Title string
	State RegionState
	Body  string
	Err   error
}

// panelBase supplies Config for concrete panels.
type panelBase struct {
	config PanelConfig
}

func (b panelBase) Config() PanelConfig {
	return b.config
}
