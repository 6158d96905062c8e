// Package portal drives the support portal through a hidden browser window.
// All portal-specific DOM selectors and page globals live here; the rest of
// the system only sees the Driver interface.
package portal

import (
	"context"

	"github.com/t77yq/uni-helper/internal/model"
)

// Driver is the narrow surface the monitoring engine depends on. The
// production implementation is Browser; tests substitute their own.
type Driver interface {
	// CheckSession inspects the live portal page and reports whether an
	// authenticated session exists. Never returns an error; failures are
	// carried in the result message.
	CheckSession(ctx context.Context) model.Result

	// Login fills and submits the portal's login form, waits for the
	// redirect to settle, and re-verifies the session.
	Login(ctx context.Context, username, password string) model.Result

	// Scrape fetches the "all requests" and "my requests" result sets
	// from the portal grid.
	Scrape(ctx context.Context) ScrapeResult
}

// ScrapeResult is the structured outcome of one grid scrape. On failure
// Success is false and Message carries the diagnostic; the row slices are
// empty.
type ScrapeResult struct {
	Success          bool
	Message          string
	AllRequests      []model.Alert
	PersonalRequests []model.Alert
}

// TicketURL returns the portal deep link for a ticket.
func TicketURL(baseURL, ticketID string) string {
	return baseURL + "?access=list&srIdx=" + ticketID
}
