package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cin-planner/planejador/internal/calendar"
	"github.com/cin-planner/planejador/internal/domain"
	"github.com/cin-planner/planejador/internal/render"
	"github.com/cin-planner/planejador/internal/scheduler"
	amqp "github.com/rabbitmq/amqp091-go"
)

var errTermNotConfigured = errors.New("período letivo não configurado")

type ScheduleView struct {
	Student  string        `json:"student"`
	Sections []SectionView `json:"sections"`
	Grid     render.Grid   `json:"grid"`
}

func (h *Handler) term() (calendar.Term, error) {
	start, end, err := h.config.Term()
	if err != nil {
		return calendar.Term{}, err
	}
	if start.IsZero() {
		return calendar.Term{}, errTermNotConfigured
	}
	return calendar.Term{Start: start, End: end, Location: h.config.Location()}, nil
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	student := r.Context().Value(StudentCtx).(string)
	planner := r.Context().Value(PlannerCtx).(*scheduler.Planner)

	grid, err := render.BuildGrid(planner.Selected(), h.parser)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.successResponse(w, r, "Cronograma obtido com sucesso", ScheduleView{
		Student:  student,
		Sections: newSectionViews(planner.Selected(), planner.Status),
		Grid:     grid,
	})
}

func (h *Handler) GetScheduleICS(w http.ResponseWriter, r *http.Request) {
	student := r.Context().Value(StudentCtx).(string)
	planner := r.Context().Value(PlannerCtx).(*scheduler.Planner)

	term, err := h.term()
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := calendar.Write(&buf, planner.Selected(), h.parser, term); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("horario-%s.ics", student)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

/**
 * EmailSchedule 把课表放入邮件队列，由 mail worker 发送
 * 配置了学期时附带 .ics 文件
 */
func (h *Handler) EmailSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if h.mailChannel == nil {
		h.errorResponse(w, r, "Envio de e-mail indisponível")
		return
	}

	student := r.Context().Value(StudentCtx).(string)
	planner := r.Context().Value(PlannerCtx).(*scheduler.Planner)
	selected := planner.Selected()

	if len(selected) == 0 {
		h.errorResponse(w, r, "Nenhuma disciplina selecionada")
		return
	}

	grid, err := render.BuildGrid(selected, h.parser)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}
	var gridText bytes.Buffer
	if err := render.WriteGrid(&gridText, grid); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	data := domain.ScheduleMailData{
		Student: student,
		Grid:    gridText.String(),
	}
	for _, s := range selected {
		data.Sections = append(data.Sections, fmt.Sprintf("%s - %s (Turma %s) %s", s.Code, s.Name, s.Class, s.Schedule))
	}

	term, err := h.term()
	switch {
	case err == nil:
		var ics bytes.Buffer
		if err := calendar.Write(&ics, selected, h.parser, term); err != nil {
			h.errorResponse(w, r, err.Error())
			return
		}
		data.ICS = ics.String()
	case errors.Is(err, errTermNotConfigured):
		// 没有学期信息时只发送文字版课表
	default:
		h.internalServerError(w, r, err)
		return
	}

	mailMessage := domain.MailMessage{
		Type: domain.MailTypeSchedule,
		To:   req.Email,
		Data: data,
	}

	// 序列化邮件
	mailData, err := json.Marshal(mailMessage)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.mailChannel.PublishWithContext(
		ctx,
		"",
		domain.ScheduleMailQueue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "O cronograma será enviado por e-mail", nil)
}
