package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cin-planner/planejador/internal/domain"
	"github.com/stretchr/testify/require"
)

func received(t *testing.T, to string, data domain.ScheduleMailData) domain.ReceivedMailMessage {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return domain.ReceivedMailMessage{Type: domain.MailTypeSchedule, To: to, Data: raw}
}

func TestScheduleBody(t *testing.T) {
	body := scheduleBody(domain.ScheduleMailData{
		Student:  "maria",
		Sections: []string{"CIN0130 - SISTEMAS DIGITAIS (Turma A) 2M34"},
		Grid:     "Hora  Segunda\n",
	})

	require.Contains(t, body, "Olá, maria!")
	require.Contains(t, body, "  - CIN0130 - SISTEMAS DIGITAIS (Turma A) 2M34\n")
	require.Contains(t, body, "Hora  Segunda")
	require.NotContains(t, body, "horario.ics")
}

func TestBuildMessageWithAttachment(t *testing.T) {
	msg, err := buildMessage("planejador@cin.ufpe.br", received(t, "maria@cin.ufpe.br", domain.ScheduleMailData{
		Student: "maria",
		Grid:    "grade",
		ICS:     "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n",
	}))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "maria@cin.ufpe.br")
	require.Contains(t, out, "horario.ics")
	require.Contains(t, out, "text/calendar")
}

func TestBuildMessageRejectsBadPayload(t *testing.T) {
	_, err := buildMessage("planejador@cin.ufpe.br", domain.ReceivedMailMessage{Type: "desconhecido", To: "maria@cin.ufpe.br"})
	require.Error(t, err)

	_, err = buildMessage("planejador@cin.ufpe.br", domain.ReceivedMailMessage{Type: domain.MailTypeSchedule, To: "não é e-mail"})
	require.Error(t, err)

	_, err = buildMessage("planejador@cin.ufpe.br", domain.ReceivedMailMessage{Type: domain.MailTypeSchedule, To: "maria@cin.ufpe.br", Data: json.RawMessage(`"x"`)})
	require.Error(t, err)
}
