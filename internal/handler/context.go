package handler

type ContextKey string

var (
	StudentCtx ContextKey = "student"
	PlannerCtx ContextKey = "planner"
	MissingCtx ContextKey = "missingSelections"
)
