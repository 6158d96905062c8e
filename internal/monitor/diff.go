package monitor

import "github.com/t77yq/uni-helper/internal/model"

// NewAlerts returns the alerts in next whose ticket id has no match in the
// previous snapshot.
func NewAlerts(prev []model.AlertWithFlags, next []model.Alert) []model.Alert {
	known := make(map[string]struct{}, len(prev))
	for _, alert := range prev {
		known[alert.TicketID] = struct{}{}
	}

	var fresh []model.Alert
	for _, alert := range next {
		if _, ok := known[alert.TicketID]; !ok {
			fresh = append(fresh, alert)
		}
	}
	return fresh
}

// StatusChanged returns the alerts in next whose status changed since the
// previous snapshot AND whose new status is exactly the customer-replied
// marker. Every other status transition is absorbed silently into the new
// snapshot.
func StatusChanged(prev []model.AlertWithFlags, next []model.Alert) []model.Alert {
	previous := make(map[string]string, len(prev))
	for _, alert := range prev {
		previous[alert.TicketID] = alert.Status
	}

	var changed []model.Alert
	for _, alert := range next {
		old, ok := previous[alert.TicketID]
		if ok && old != alert.Status && alert.Status == model.StatusCustomerReplied {
			changed = append(changed, alert)
		}
	}
	return changed
}
