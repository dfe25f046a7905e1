package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cin-planner/planejador/internal/config"
	"github.com/cin-planner/planejador/internal/domain"
	"github.com/cin-planner/planejador/internal/repository"
	"github.com/cin-planner/planejador/internal/scheduler"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	key  string
	msgs []amqp.Publishing
	err  error
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, exchange string, key string, mandatory bool, immediate bool, msg amqp.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.key = key
	p.msgs = append(p.msgs, msg)
	return nil
}

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testSections() []*domain.Section {
	return []*domain.Section{
		{Department: "CIN", Code: "CIN0130", Class: "A", Name: "SISTEMAS DIGITAIS", Teacher: "Fulano", Schedule: "2M34"},
		{Department: "CIN", Code: "CIN0130", Class: "B", Name: "SISTEMAS DIGITAIS", Teacher: "Fulano", Schedule: "3M34"},
		{Department: "CIN", Code: "CIN0131", Class: "A", Name: "ALGORITMOS", Teacher: "Ciclano", Schedule: "2M4 4M12"},
		{Department: "DMAT", Code: "MA026", Class: "A", Name: "CÁLCULO", Teacher: "Beltrano", Schedule: "5T12", Room: "D001"},
	}
}

func newTestHandler(t *testing.T) (*Handler, *fakePublisher, repository.SelectionStore) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Storage.Driver = config.StorageFile
	cfg.Storage.DefaultStudent = "default"
	cfg.Schedule.Timezone = "UTC"
	cfg.Schedule.TermStart = "2025-03-10"
	cfg.Schedule.TermEnd = "2025-07-12"
	cfg.RabbitMQ.PublishTimeout = 5

	store := repository.NewFileStore(filepath.Join(t.TempDir(), "selecoes.json"), "default")
	publisher := &fakePublisher{}

	h, err := NewHandler(cfg, testSections(), scheduler.NewParser(nil), store, publisher)
	require.NoError(t, err)
	h.RegisterRoutes()

	return h, publisher, store
}

func do(t *testing.T, h *Handler, method string, path string, body string) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	var resp testResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func sectionKeys(t *testing.T, data json.RawMessage) []string {
	t.Helper()

	var views []struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(data, &views))

	keys := make([]string, 0, len(views))
	for _, v := range views {
		keys = append(keys, v.Key)
	}
	return keys
}

func TestGetAllSections(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec, resp := do(t, h, http.MethodGet, "/sections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
	require.Equal(t, []string{"CIN0131-A", "MA026-A", "CIN0130-A", "CIN0130-B"}, sectionKeys(t, resp.Data))
}

func TestSearchSections(t *testing.T) {
	h, _, _ := newTestHandler(t)

	_, resp := do(t, h, http.MethodGet, "/sections/search?name=algoritmos", "")
	require.True(t, resp.Success)
	require.Equal(t, []string{"CIN0131-A"}, sectionKeys(t, resp.Data))

	_, resp = do(t, h, http.MethodGet, "/sections/search?name=calculo", "")
	require.True(t, resp.Success)
	require.Equal(t, []string{"MA026-A"}, sectionKeys(t, resp.Data))

	_, resp = do(t, h, http.MethodGet, "/sections/search?code=cin0130", "")
	require.True(t, resp.Success)
	require.Equal(t, []string{"CIN0130-A", "CIN0130-B"}, sectionKeys(t, resp.Data))

	_, resp = do(t, h, http.MethodGet, "/sections/search", "")
	require.False(t, resp.Success)
}

func TestGetSectionsByTimeCode(t *testing.T) {
	h, _, _ := newTestHandler(t)

	_, resp := do(t, h, http.MethodGet, "/sections/by-time/2M34", "")
	require.True(t, resp.Success)
	require.Equal(t, []string{"CIN0131-A", "CIN0130-A"}, sectionKeys(t, resp.Data))

	_, resp = do(t, h, http.MethodGet, "/sections/by-time/2X1", "")
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, scheduler.ErrMalformedTimeCode.Error())
}

func TestSelectionLifecycle(t *testing.T) {
	h, _, store := newTestHandler(t)

	_, resp := do(t, h, http.MethodGet, "/students/maria/selection", "")
	require.True(t, resp.Success)

	_, resp = do(t, h, http.MethodPost, "/students/maria/selection", `{"codigo": "CIN0130", "turma": "A"}`)
	require.True(t, resp.Success, resp.Message)

	entries, err := store.LoadSelections(context.Background(), "maria")
	require.NoError(t, err)
	require.Equal(t, []domain.SelectionEntry{{Code: "CIN0130", Class: "A", Name: "SISTEMAS DIGITAIS"}}, entries)

	// 唯一的班级可以省略班号
	_, resp = do(t, h, http.MethodPost, "/students/maria/selection", `{"codigo": "ma026"}`)
	require.True(t, resp.Success, resp.Message)

	_, resp = do(t, h, http.MethodGet, "/students/maria/selection", "")
	require.True(t, resp.Success)
	var view struct {
		Sections []struct {
			Key    string `json:"key"`
			Status string `json:"status"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.Len(t, view.Sections, 2)
	require.Equal(t, "CIN0130-A", view.Sections[0].Key)
	require.Equal(t, string(scheduler.StatusSelected), view.Sections[0].Status)

	_, resp = do(t, h, http.MethodDelete, "/students/maria/selection/CIN0130/A", "")
	require.True(t, resp.Success, resp.Message)

	_, resp = do(t, h, http.MethodDelete, "/students/maria/selection/CIN0130/A", "")
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, scheduler.ErrNotSelected.Error())

	entries, err = store.LoadSelections(context.Background(), "maria")
	require.NoError(t, err)
	require.Equal(t, []domain.SelectionEntry{{Code: "MA026", Class: "A", Name: "CÁLCULO"}}, entries)
}

func TestAddToSelectionRejections(t *testing.T) {
	h, _, _ := newTestHandler(t)

	_, resp := do(t, h, http.MethodPost, "/students/joao/selection", `{"codigo": "CIN0130", "turma": "A"}`)
	require.True(t, resp.Success)

	// 时间冲突
	_, resp = do(t, h, http.MethodPost, "/students/joao/selection", `{"codigo": "CIN0131", "turma": "A"}`)
	require.False(t, resp.Success)
	require.Equal(t, "Conflito de horário", resp.Message)
	var conflict struct {
		Messages []string `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &conflict))
	require.Len(t, conflict.Messages, 2)
	require.Contains(t, conflict.Messages[1], "Segunda 09:00–09:50")

	// 同一课程的另一个班
	_, resp = do(t, h, http.MethodPost, "/students/joao/selection", `{"codigo": "CIN0130", "turma": "B"}`)
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, scheduler.ErrCourseAlreadySelected.Error())

	// 已经选过
	_, resp = do(t, h, http.MethodPost, "/students/joao/selection", `{"codigo": "CIN0130", "turma": "A"}`)
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, scheduler.ErrAlreadySelected.Error())

	// 有多个班时必须给出班号
	_, resp = do(t, h, http.MethodPost, "/students/ana/selection", `{"codigo": "CIN0130"}`)
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, "A, B")

	_, resp = do(t, h, http.MethodPost, "/students/joao/selection", `{"codigo": "XYZ999", "turma": "A"}`)
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, scheduler.ErrSectionNotFound.Error())

	_, resp = do(t, h, http.MethodPost, "/students/joao/selection", `{"turma": "A"}`)
	require.False(t, resp.Success)

	_, resp = do(t, h, http.MethodPost, "/students/joao/selection", `{`)
	require.False(t, resp.Success)
}

func TestAddToSelectionRejectsBadBody(t *testing.T) {
	h, _, _ := newTestHandler(t)

	tests := []struct {
		body    string
		message string
	}{
		{"", "corpo da requisição vazio"},
		{`{"codigo": "CIN0130", "sala": "E101"}`, `campo desconhecido "sala"`},
		{`{"codigo": 130}`, `tipo inválido para o campo "codigo"`},
		{`{"codigo": "MA026"} {"codigo": "MA026"}`, "único objeto JSON"},
		{`{"codigo": "MA026"`, "JSON malformado"},
	}

	for _, tt := range tests {
		_, resp := do(t, h, http.MethodPost, "/students/joao/selection", tt.body)
		require.False(t, resp.Success, tt.body)
		require.Contains(t, resp.Message, tt.message, tt.body)
	}

	rec, resp := do(t, h, http.MethodGet, "/students/joao/selection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
}

func TestInvalidStudent(t *testing.T) {
	h, _, _ := newTestHandler(t)

	_, resp := do(t, h, http.MethodGet, "/students/a.b/selection", "")
	require.False(t, resp.Success)
	require.Equal(t, "Identificador de aluno inválido", resp.Message)
}

func TestGetSchedule(t *testing.T) {
	h, _, _ := newTestHandler(t)

	_, resp := do(t, h, http.MethodPost, "/students/maria/selection", `{"codigo": "CIN0130", "turma": "A"}`)
	require.True(t, resp.Success)

	_, resp = do(t, h, http.MethodGet, "/students/maria/schedule", "")
	require.True(t, resp.Success)

	var view ScheduleView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.Equal(t, "maria", view.Student)
	require.Len(t, view.Grid.Days, 5)
	require.Equal(t, "CIN0130", view.Grid.Rows[2].Cells[0])
}

func TestGetScheduleICS(t *testing.T) {
	h, _, _ := newTestHandler(t)

	_, resp := do(t, h, http.MethodPost, "/students/maria/selection", `{"codigo": "CIN0130", "turma": "A"}`)
	require.True(t, resp.Success)

	rec, _ := do(t, h, http.MethodGet, "/students/maria/schedule.ics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "horario-maria.ics")
	require.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	require.Contains(t, rec.Body.String(), "SUMMARY:CIN0130 - SISTEMAS DIGITAIS")
}

func TestGetScheduleICSWithoutTerm(t *testing.T) {
	h, _, _ := newTestHandler(t)
	h.config.Schedule.TermStart = ""
	h.config.Schedule.TermEnd = ""

	_, resp := do(t, h, http.MethodGet, "/students/maria/schedule.ics", "")
	require.False(t, resp.Success)
	require.Equal(t, errTermNotConfigured.Error(), resp.Message)
}

func TestEmailSchedule(t *testing.T) {
	h, publisher, _ := newTestHandler(t)

	_, resp := do(t, h, http.MethodPost, "/students/maria/schedule/email", `{"email": "maria@cin.ufpe.br"}`)
	require.False(t, resp.Success)
	require.Empty(t, publisher.msgs)

	_, resp = do(t, h, http.MethodPost, "/students/maria/selection", `{"codigo": "CIN0130", "turma": "A"}`)
	require.True(t, resp.Success)

	_, resp = do(t, h, http.MethodPost, "/students/maria/schedule/email", `{"email": "não é e-mail"}`)
	require.False(t, resp.Success)

	_, resp = do(t, h, http.MethodPost, "/students/maria/schedule/email", `{"email": "maria@cin.ufpe.br"}`)
	require.True(t, resp.Success, resp.Message)
	require.Equal(t, domain.ScheduleMailQueue, publisher.key)
	require.Len(t, publisher.msgs, 1)

	var msg struct {
		Type string                  `json:"type"`
		To   string                  `json:"to"`
		Data domain.ScheduleMailData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(publisher.msgs[0].Body, &msg))
	require.Equal(t, domain.MailTypeSchedule, msg.Type)
	require.Equal(t, "maria@cin.ufpe.br", msg.To)
	require.Equal(t, "maria", msg.Data.Student)
	require.Len(t, msg.Data.Sections, 1)
	require.Contains(t, msg.Data.Grid, "CIN0130")
	require.Contains(t, msg.Data.ICS, "BEGIN:VCALENDAR")
}

func TestEmailSchedulePublishError(t *testing.T) {
	h, publisher, _ := newTestHandler(t)
	publisher.err = errors.New("canal fechado")

	_, resp := do(t, h, http.MethodPost, "/students/maria/selection", `{"codigo": "CIN0130", "turma": "A"}`)
	require.True(t, resp.Success)

	rec, resp := do(t, h, http.MethodPost, "/students/maria/schedule/email", `{"email": "maria@cin.ufpe.br"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.False(t, resp.Success)
}

func TestRecoverer(t *testing.T) {
	h, _, _ := newTestHandler(t)
	h.Mux.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec, resp := do(t, h, http.MethodGet, "/panic", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.False(t, resp.Success)
}
