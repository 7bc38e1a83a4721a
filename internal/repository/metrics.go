package repository

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opInsert       = "insert"
	opUpdate       = "update"
	opDelete       = "delete"
	opGetByID      = "get_by_id"
	opGetAll       = "get_all"
	opGetByMonth   = "get_by_month"
	opSearch       = "search"
	opGetUpcoming  = "get_upcoming"
	opGetCalendars = "get_calendars"
)

var operationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "schedulo_repository_operations_total",
		Help: "Repository operations by outcome.",
	},
	[]string{"operation", "status"},
)

func (r *Repository) observe(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	operationsTotal.WithLabelValues(operation, status).Inc()
}
