package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cin-planner/planejador/internal/catalog"
	"github.com/cin-planner/planejador/internal/domain"
	"github.com/cin-planner/planejador/internal/scheduler"
	"github.com/go-chi/chi/v5"
)

type SectionView struct {
	*domain.Section
	Key    string           `json:"key"`
	Status scheduler.Status `json:"status,omitempty"`
}

func newSectionViews(sections []*domain.Section, status func(*domain.Section) scheduler.Status) []SectionView {
	views := make([]SectionView, 0, len(sections))
	for _, s := range sections {
		view := SectionView{Section: s, Key: s.Key()}
		if status != nil {
			view.Status = status(s)
		}
		views = append(views, view)
	}
	return views
}

func (h *Handler) GetAllSections(w http.ResponseWriter, r *http.Request) {
	sections := catalog.SortByName(h.sections)

	h.successResponse(w, r, "Disciplinas obtidas com sucesso", newSectionViews(sections, nil))
}

func (h *Handler) SearchSections(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `validate:"required_without=Code"`
		Code string `validate:"required_without=Name"`
	}
	req.Name = strings.TrimSpace(r.URL.Query().Get("name"))
	req.Code = strings.TrimSpace(r.URL.Query().Get("code"))

	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 按代码查找优先于按名称搜索
	var sections []*domain.Section
	if req.Code != "" {
		sections = catalog.FindByCode(h.sections, req.Code)
	} else {
		sections = catalog.Search(h.sections, req.Name)
	}

	h.successResponse(w, r, "Busca realizada com sucesso", newSectionViews(sections, nil))
}

func (h *Handler) GetSectionsByTimeCode(w http.ResponseWriter, r *http.Request) {
	timeCode := chi.URLParam(r, "timeCode")

	planner := scheduler.New(h.parser, h.sections)
	sections, err := planner.FindByTimeCode(timeCode)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrMalformedTimeCode), errors.Is(err, scheduler.ErrInvalidHourForPeriod):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Busca realizada com sucesso", newSectionViews(sections, nil))
}
