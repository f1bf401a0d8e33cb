// ABOUTME: Render dispatch: runs every panel against a payload in isolation
// ABOUTME: A failing or panicking panel becomes an inline error region; the rest still render
package panels

import (
	"fmt"

	"github.com/harperreed/salesdash/models"
	"go.uber.org/zap"
)

const (
	noDataMessage  = "no data"
	offlineMessage = "Unable to reach the reporting server.\nCheck your connection, then press a to retry."
)

// Dispatcher renders an ordered list of panels.
type Dispatcher struct {
	panels []Panel
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher. A nil logger discards logs.
func NewDispatcher(logger *zap.Logger, panels ...Panel) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{panels: panels, logger: logger}
}

// Panels returns the panels in render order.
func (d *Dispatcher) Panels() []Panel {
	return d.panels
}

// Dispatch renders every panel. The result has one region per panel, in order.
func (d *Dispatcher) Dispatch(payload *models.Payload, width int) []Region {
	regions := make([]Region, 0, len(d.panels))
	for _, p := range d.panels {
		regions = append(regions, d.renderOne(p, payload, width))
	}
	return regions
}

func (d *Dispatcher) renderOne(p Panel, payload *models.Payload, width int) (region Region) {
	cfg := p.Config()
	region = Region{ID: cfg.ID, Title: cfg.Title}

	if !hasData(payload, cfg.Sections) {
		region.State = RegionEmpty
		region.Body = noDataMessage
		return region
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panel %s panicked: %v", cfg.ID, r)
			d.logger.Error("panel render failed", zap.String("panel", cfg.ID), zap.Error(err))
			region.State = RegionError
			region.Body = "error: " + err.Error()
			region.Err = err
		}
	}()

	body, err := p.Render(payload, width)
	if err != nil {
		d.logger.Warn("panel render failed", zap.String("panel", cfg.ID), zap.Error(err))
		region.State = RegionError
		region.Body = "error: " + err.Error()
		region.Err = err
		return region
	}
	region.State = RegionOK
	region.Body = body
	return region
}

// Fallback returns offline regions for the primary panels only.
func (d *Dispatcher) Fallback(err error) []Region {
	var regions []Region
	for _, p := range d.panels {
		cfg := p.Config()
		if !cfg.Primary {
			continue
		}
		regions = append(regions, Region{
			ID:    cfg.ID,
			Title: cfg.Title,
			State: RegionOffline,
			Body:  offlineMessage,
			Err:   err,
		})
	}
	return regions
}

// Merge replaces regions in current with same-ID regions from updates.
// Regions without a counterpart in current are appended.
func Merge(current, updates []Region) []Region {
	out := append([]Region(nil), current...)
	index := make(map[string]int, len(out))
	for i, r := range out {
		index[r.ID] = i
	}
	for _, u := range updates {
		if i, ok := index[u.ID]; ok {
			out[i] = u
			continue
		}
		index[u.ID] = len(out)
		out = append(out, u)
	}
	return out
}

// hasData reports whether any of the sections has something to show. Panels
// that declare no sections always render.
func hasData(payload *models.Payload, sections []string) bool {
	if payload == nil {
		return false
	}
	if len(sections) == 0 {
		return true
	}
	for _, name := range sections {
		if payload.Section(name).HasData() {
			return true
		}
	}
	return false
}
