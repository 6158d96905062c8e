// Package service exposes the daemon's control surface over the embedded
// NATS server: request/reply commands for the UI shell and one-way events
// pushed back to it.
package service

// Command subjects. Each is a request/reply endpoint carrying JSON.
const (
	subjectGetSettings          = "helper.cmd.get-settings"
	subjectSaveSettings         = "helper.cmd.save-settings"
	subjectUpdateSetting        = "helper.cmd.update-setting"
	subjectToggleMonitoring     = "helper.cmd.toggle-monitoring"
	subjectGetAlerts            = "helper.cmd.get-alerts"
	subjectOpenRequest          = "helper.cmd.open-request"
	subjectGetAppInfo           = "helper.cmd.get-app-info"
	subjectGetSchedules         = "helper.cmd.get-schedules"
	subjectAddSchedule          = "helper.cmd.add-schedule"
	subjectUpdateScheduleStatus = "helper.cmd.update-schedule-status"
	subjectDeleteSchedule       = "helper.cmd.delete-schedule"
	subjectCheckForUpdates      = "helper.cmd.check-for-updates"
	subjectDownloadUpdate       = "helper.cmd.download-update"
	subjectInstallUpdate        = "helper.cmd.install-update"
	subjectCycleHistory         = "helper.cmd.get-cycle-history"
)

// Event subjects. Fire-and-forget pushes; clients subscribe as needed.
const (
	subjectMonitoringStatus = "helper.event.monitoring-status-changed"
	subjectNewAlerts        = "helper.event.new-alerts-available"
	subjectUpdateStatus     = "helper.event.update-status"
	subjectLog              = "helper.event.log"
	subjectAttention        = "helper.event.attention"
)
