package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/dwarvesf/withdrawal-engine/internal/chainrpc"
	"github.com/dwarvesf/withdrawal-engine/internal/handler/health"
	"github.com/dwarvesf/withdrawal-engine/internal/handler/metrics"
	"github.com/dwarvesf/withdrawal-engine/internal/handler/withdrawal"
	"github.com/dwarvesf/withdrawal-engine/internal/model"
	"github.com/dwarvesf/withdrawal-engine/internal/monitoring"
	"github.com/dwarvesf/withdrawal-engine/internal/requestqueue"
	"github.com/dwarvesf/withdrawal-engine/internal/statustracker"
	"github.com/dwarvesf/withdrawal-engine/internal/txqueue"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/config"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/logger"
)

type Handler struct {
	WithdrawalHandler withdrawal.IHandler
	HealthHandler     health.IHealthHandler
	MetricsHandler    *metrics.MetricsHandler
}

func New(appConfig *config.AppConfig, logger *logger.Logger,
	requestQueue requestqueue.IQueue,
	txQueue txqueue.IQueue,
	tracker statustracker.ITracker,
	adapters map[model.Network]chainrpc.INetworkAdapter,
	db *gorm.DB,
	metricsRegistry *prometheus.Registry,
	jobStatusManager *monitoring.JobStatusManager) *Handler {
	return &Handler{
		WithdrawalHandler: withdrawal.New(requestQueue, txQueue, tracker, logger, appConfig),
		HealthHandler:     health.New(appConfig, logger, db, adapters, jobStatusManager),
		MetricsHandler:    metrics.NewMetricsHandler(metricsRegistry),
	}
}
