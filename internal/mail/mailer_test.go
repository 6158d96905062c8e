package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/t77yq/uni-helper/internal/model"
)

func TestEnvelopeFrom(t *testing.T) {
	require.Equal(t, "uni-helper@unidocu.unipost.co.kr",
		envelopeFrom(`"일정 알리미" <uni-helper@unidocu.unipost.co.kr>`))
	require.Equal(t, "plain@unipost.co.kr", envelopeFrom("plain@unipost.co.kr"))
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage(
		`"일정 알리미" <uni-helper@unidocu.unipost.co.kr>`,
		"kim@unipost.co.kr",
		`[일정 알림] "회의" 일정이 1시간 후 예정되어 있습니다`,
		"<p>본문</p>"))

	headers, body, found := strings.Cut(msg, "\r\n\r\n")
	require.True(t, found)
	require.Contains(t, headers, "To: kim@unipost.co.kr")
	require.Contains(t, headers, "Content-Type: text/html; charset=utf-8")
	require.Contains(t, headers, "MIME-Version: 1.0")
	// Korean subject must be RFC 2047 encoded.
	require.Contains(t, headers, "Subject: =?utf-8?q?")
	require.Equal(t, "<p>본문</p>", body)
}

func TestReminderBody(t *testing.T) {
	body := reminderBody(model.Schedule{
		Title:       "고객 미팅 <중요>",
		Description: "2층 회의실",
		Date:        "2025-06-10",
		Time:        "14:00",
		TicketID:    "12345",
		TicketTitle: "결재 오류",
	}, "https://114.unipost.co.kr/home.uni")

	require.Contains(t, body, "2025-06-10 14:00")
	require.Contains(t, body, "2층 회의실")
	// Deep link to the related ticket
	require.Contains(t, body, "https://114.unipost.co.kr/home.uni?access=list&srIdx=12345")
	require.Contains(t, body, "결재 오류")
	// HTML in user input is escaped
	require.Contains(t, body, "고객 미팅 &lt;중요&gt;")
	require.NotContains(t, body, "<중요>")
}

func TestReminderBodyWithoutTicket(t *testing.T) {
	body := reminderBody(model.Schedule{
		Title: "사내 교육",
		Date:  "2025-06-10",
		Time:  "09:00",
	}, "https://114.unipost.co.kr/home.uni")

	require.NotContains(t, body, "srIdx")
	require.NotContains(t, body, "관련 요청")
}
