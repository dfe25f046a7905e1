package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cin-planner/planejador/internal/catalog"
	"github.com/cin-planner/planejador/internal/domain"
	"github.com/cin-planner/planejador/internal/render"
	"github.com/cin-planner/planejador/internal/scheduler"
	"github.com/go-chi/chi/v5"
)

type SelectionView struct {
	Student  string                  `json:"student"`
	Sections []SectionView           `json:"sections"`
	Missing  []domain.SelectionEntry `json:"missing"`
}

type ConflictView struct {
	Conflicts scheduler.Conflicts `json:"conflicts"`
	Messages  []string            `json:"messages"`
}

func (h *Handler) selectionView(r *http.Request) SelectionView {
	student := r.Context().Value(StudentCtx).(string)
	planner := r.Context().Value(PlannerCtx).(*scheduler.Planner)
	missing := r.Context().Value(MissingCtx).([]domain.SelectionEntry)
	if missing == nil {
		missing = []domain.SelectionEntry{}
	}

	return SelectionView{
		Student:  student,
		Sections: newSectionViews(planner.Selected(), planner.Status),
		Missing:  missing,
	}
}

// saveSelection 保存当前选课，目录中找不到的旧记录原样保留
func (h *Handler) saveSelection(r *http.Request, student string, planner *scheduler.Planner) error {
	entries := planner.Entries()
	if missing, ok := r.Context().Value(MissingCtx).([]domain.SelectionEntry); ok {
		entries = append(entries, missing...)
	}
	return h.store.SaveSelections(r.Context(), student, entries)
}

func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "Seleção obtida com sucesso", h.selectionView(r))
}

// resolveSection 没有给出班号时，只有该课程恰好有一个班才能确定
func (h *Handler) resolveSection(planner *scheduler.Planner, code string, class string) (*domain.Section, error) {
	if class != "" {
		return planner.Lookup(code, class)
	}

	matches := catalog.FindByCode(h.sections, code)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", scheduler.ErrSectionNotFound, strings.ToUpper(code))
	case 1:
		return matches[0], nil
	default:
		classes := make([]string, 0, len(matches))
		for _, s := range matches {
			classes = append(classes, s.Class)
		}
		return nil, fmt.Errorf("a disciplina %s possui várias turmas (%s), informe a turma", strings.ToUpper(code), strings.Join(classes, ", "))
	}
}

func (h *Handler) AddToSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code  string `json:"codigo" validate:"required"`
		Class string `json:"turma"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	student := r.Context().Value(StudentCtx).(string)
	planner := r.Context().Value(PlannerCtx).(*scheduler.Planner)

	section, err := h.resolveSection(planner, req.Code, strings.TrimSpace(req.Class))
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	conflicts, err := planner.Add(section)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrScheduleConflict):
			h.errorResponseWithData(w, r, "Conflito de horário", ConflictView{
				Conflicts: conflicts,
				Messages:  render.DescribeConflicts(section, conflicts),
			})
		case errors.Is(err, scheduler.ErrAlreadySelected),
			errors.Is(err, scheduler.ErrCourseAlreadySelected),
			errors.Is(err, scheduler.ErrMalformedTimeCode),
			errors.Is(err, scheduler.ErrInvalidHourForPeriod):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.saveSelection(r, student, planner); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, fmt.Sprintf("'%s' adicionada ao cronograma", section.Name), h.selectionView(r))
}

func (h *Handler) RemoveFromSelection(w http.ResponseWriter, r *http.Request) {
	student := r.Context().Value(StudentCtx).(string)
	planner := r.Context().Value(PlannerCtx).(*scheduler.Planner)

	section, err := planner.Lookup(chi.URLParam(r, "code"), chi.URLParam(r, "class"))
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	if err := planner.Remove(section); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrNotSelected):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.saveSelection(r, student, planner); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, fmt.Sprintf("'%s' removida do cronograma", section.Name), h.selectionView(r))
}
