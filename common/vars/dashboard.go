package vars

import (
	"booth-queue/model"
	"sync/atomic"
)

// dashboardPtr holds the last rendered admin dashboard.
// Readers never block the render loop that replaces it.
var dashboardPtr atomic.Pointer[model.Dashboard]

// GetDashboard returns the current dashboard, or nil before the first render.
func GetDashboard() *model.Dashboard {
	return dashboardPtr.Load()
}

// SetDashboard replaces the dashboard with a copy of d.
// Pass nil to clear it.
func SetDashboard(d *model.Dashboard) {
	if d == nil {
		dashboardPtr.Store(nil)
		return
	}

	c := *d
	if d.Slots != nil {
		c.Slots = make([]model.SlotStatus, len(d.Slots))
		copy(c.Slots, d.Slots)
	}
	if d.Waiting != nil {
		c.Waiting = make([]model.WaitingRow, len(d.Waiting))
		copy(c.Waiting, d.Waiting)
	}

	dashboardPtr.Store(&c)
}
