package service

import "context"

// Update states as the UI shell understands them.
const (
	UpdateStateChecking     = "checking"
	UpdateStateAvailable    = "available"
	UpdateStateNotAvailable = "not-available"
	UpdateStateDownloading  = "downloading"
	UpdateStateDownloaded   = "downloaded"
	UpdateStateError        = "error"
)

// UpdateStatus is one updater progress report.
type UpdateStatus struct {
	State   string  `json:"state"`
	Version string  `json:"version,omitempty"`
	Percent float64 `json:"percent,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Updater checks for and applies application updates.
type Updater interface {
	CheckForUpdates(ctx context.Context) UpdateStatus
	DownloadUpdate(ctx context.Context) UpdateStatus
	InstallUpdate() UpdateStatus
}

// noopUpdater always reports the running version as current. Used until a
// release feed exists for the daemon.
type noopUpdater struct {
	version string
}

// NewNoopUpdater returns an Updater that never finds an update.
func NewNoopUpdater(version string) Updater {
	return &noopUpdater{version: version}
}

func (u *noopUpdater) CheckForUpdates(context.Context) UpdateStatus {
	return UpdateStatus{
		State:   UpdateStateNotAvailable,
		Version: u.version,
		Message: "현재 최신 버전입니다.",
	}
}

func (u *noopUpdater) DownloadUpdate(context.Context) UpdateStatus {
	return UpdateStatus{
		State:   UpdateStateError,
		Message: "다운로드할 업데이트가 없습니다.",
	}
}

func (u *noopUpdater) InstallUpdate() UpdateStatus {
	return UpdateStatus{
		State:   UpdateStateError,
		Message: "설치할 업데이트가 없습니다.",
	}
}
