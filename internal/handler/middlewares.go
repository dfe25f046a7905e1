package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cin-planner/planejador/internal/repository"
	"github.com/cin-planner/planejador/internal/scheduler"
	"github.com/go-chi/chi/v5"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("已处理请求", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) lockStudent(student string) func() {
	v, _ := h.studentLocks.LoadOrStore(student, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

/**
 * studentPlanner 读取学生已保存的选课，构建 Planner 放入 context
 * 整个请求期间持有该学生的锁
 */
func (h *Handler) studentPlanner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		student := chi.URLParam(r, "student")
		if err := repository.ValidateStudent(student); err != nil {
			h.errorResponse(w, r, "Identificador de aluno inválido")
			return
		}

		unlock := h.lockStudent(student)
		defer unlock()

		entries, err := h.store.LoadSelections(r.Context(), student)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrInvalidStudent):
				h.errorResponse(w, r, "Identificador de aluno inválido")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		planner := scheduler.New(h.parser, h.sections)
		missing := planner.Restore(entries)
		if len(missing) > 0 {
			slog.Warn("部分已保存的选课在目录中不存在", "student", student, "missing", len(missing))
		}

		ctx := context.WithValue(r.Context(), StudentCtx, student)
		ctx = context.WithValue(ctx, PlannerCtx, planner)
		ctx = context.WithValue(ctx, MissingCtx, missing)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
