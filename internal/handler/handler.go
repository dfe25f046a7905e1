package handler

import (
	"context"
	"sync"

	"github.com/cin-planner/planejador/internal/config"
	"github.com/cin-planner/planejador/internal/domain"
	"github.com/cin-planner/planejador/internal/repository"
	"github.com/cin-planner/planejador/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/pt_BR"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pt_BR_translations "github.com/go-playground/validator/v10/translations/pt_BR"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MailPublisher 由 *amqp.Channel 实现
type MailPublisher interface {
	PublishWithContext(ctx context.Context, exchange string, key string, mandatory bool, immediate bool, msg amqp.Publishing) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	store       repository.SelectionStore
	translator  ut.Translator
	mailChannel MailPublisher

	parser   *scheduler.Parser
	sections []*domain.Section

	// 同一个学生的请求串行处理，保证读取-修改-保存之间不会互相覆盖
	studentLocks sync.Map

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, sections []*domain.Section, parser *scheduler.Parser, store repository.SelectionStore, mailCh MailPublisher) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	ptBR := pt_BR.New()
	uni := ut.New(ptBR, ptBR)
	trans, _ := uni.GetTranslator("pt_BR")
	if err := pt_BR_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		store:       store,
		translator:  trans,
		mailChannel: mailCh,

		parser:   parser,
		sections: sections,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 课程目录
	h.Mux.Route("/sections", func(r chi.Router) {
		r.Get("/", h.GetAllSections)
		r.Get("/search", h.SearchSections)
		r.Get("/by-time/{timeCode}", h.GetSectionsByTimeCode)
	})

	// 学生的选课与课表
	h.Mux.Route("/students/{student}", func(r chi.Router) {
		r.Use(h.studentPlanner)
		r.Route("/selection", func(r chi.Router) {
			r.Get("/", h.GetSelection)
			r.Post("/", h.AddToSelection)
			r.Delete("/{code}/{class}", h.RemoveFromSelection)
		})
		r.Get("/schedule", h.GetSchedule)
		r.Get("/schedule.ics", h.GetScheduleICS)
		r.Post("/schedule/email", h.EmailSchedule)
	})
}
