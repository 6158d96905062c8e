package model

// Portal status markers. These are part of the portal's wire contract and
// must match the grid's free-text status values exactly.
const (
	// MarkerUrgent appears in the request title of urgent tickets.
	MarkerUrgent = "긴급"

	// MarkerReceived prefixes the status of newly received tickets.
	MarkerReceived = "접수"

	// StatusCustomerReplied is the exact status a ticket gets when the
	// customer answers. Only this transition raises a notification.
	StatusCustomerReplied = "고객사답변"

	// MarkerLoggedOut appears in the portal's error banner when the
	// server has expired the session.
	MarkerLoggedOut = "로그아웃"
)

// Alert is one support-request row scraped from the portal grid. The json
// tags mirror the grid's column keys; extra columns are dropped on decode.
type Alert struct {
	TicketID       string `json:"SR_IDX"`
	RequestTitle   string `json:"REQ_TITLE"`
	CustomerName   string `json:"CM_NAME"`
	Status         string `json:"STATUS"`
	Writer         string `json:"WRITER"`
	RequestDate    string `json:"REQ_DATE"`
	RequestDateAll string `json:"REQ_DATE_ALL"`
	ProcessDate    string `json:"PROCESS_DATE"`
}

// AlertWithFlags annotates an Alert with derived status flags. Flags are
// pure functions of the alert and the current time and are recomputed on
// every scrape cycle, never persisted on their own.
type AlertWithFlags struct {
	Alert
	IsUrgent  bool `json:"isUrgent"`
	IsDelayed bool `json:"isDelayed"`
	IsPending bool `json:"isPending"`
}
