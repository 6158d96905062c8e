// Package notify surfaces alert batches as OS desktop notifications and
// keeps the visible set from piling up.
package notify

import "github.com/gen2brain/beeep"

// Desktop shows one OS notification and returns a handle for later
// housekeeping.
type Desktop interface {
	Show(title, body string) (Handle, error)
}

// Handle tracks a shown notification.
type Handle interface {
	Dismissed() bool
}

type beeepDesktop struct {
	appIcon string
}

// NewDesktop returns the beeep-backed Desktop. appIcon may be empty.
func NewDesktop(appIcon string) Desktop {
	return &beeepDesktop{appIcon: appIcon}
}

func (d *beeepDesktop) Show(title, body string) (Handle, error) {
	if err := beeep.Notify(title, body, d.appIcon); err != nil {
		return nil, err
	}
	return beeepHandle{}, nil
}

// The OS gives no feedback once a notification is posted, so handles are
// never observed as dismissed and age out instead.
type beeepHandle struct{}

func (beeepHandle) Dismissed() bool { return false }
