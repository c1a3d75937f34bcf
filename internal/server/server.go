package server

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/dwarvesf/withdrawal-engine/internal/chainrpc"
	"github.com/dwarvesf/withdrawal-engine/internal/handler"
	"github.com/dwarvesf/withdrawal-engine/internal/model"
	"github.com/dwarvesf/withdrawal-engine/internal/monitoring"
	"github.com/dwarvesf/withdrawal-engine/internal/requestqueue"
	"github.com/dwarvesf/withdrawal-engine/internal/signer"
	"github.com/dwarvesf/withdrawal-engine/internal/statustracker"
	"github.com/dwarvesf/withdrawal-engine/internal/store"
	pgstore "github.com/dwarvesf/withdrawal-engine/internal/store/postgres"
	"github.com/dwarvesf/withdrawal-engine/internal/transport/http"
	"github.com/dwarvesf/withdrawal-engine/internal/txqueue"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/config"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/logger"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/vault"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/webhook"
)

func Init() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)

	db := pgstore.New(appConfig, logger)
	s := store.New()

	registry := prometheus.NewRegistry()
	apiMetrics := monitoring.NewExternalAPIMetrics()
	apiMetrics.MustRegister(registry)
	engineMetrics := monitoring.NewEngineMetrics()
	engineMetrics.MustRegister(registry)
	jobMetrics := monitoring.NewBackgroundJobMetrics()
	jobMetrics.MustRegister(registry)
	httpMetrics := monitoring.NewHTTPMetrics()
	httpMetrics.MustRegister(registry)

	adapters, signers, accounts := initNetworks(appConfig, apiMetrics, logger)
	if len(adapters) == 0 {
		logger.Error("No networks configured, refusing to start")
		return
	}

	tracker := statustracker.New(db, s, logger)

	notifiers := &txqueue.Fanout{}
	if appConfig.WebhookURL != "" {
		notifiers.Add(webhook.New(appConfig.WebhookURL, logger))
	}

	engine := txqueue.New(db, s, tracker, adapters, signers, appConfig, logger, notifiers, engineMetrics)
	requestQueue := requestqueue.New(db, s, tracker, engine, accounts, appConfig, logger, engineMetrics)
	notifiers.Add(requestQueue)

	engine.Start()
	defer engine.Stop()

	if err := engine.Resume(); err != nil {
		logger.Error("Failed to resume in-flight withdrawals", map[string]string{
			"error": err.Error(),
		})
	}

	jobStatusManager := monitoring.NewJobStatusManager(logger, jobMetrics)

	c := cron.New()
	c.AddFunc("@every 1h", jobStatusManager.Instrument("retention_gc", func() error {
		return collectSettledWithdrawals(db, s, tracker, appConfig, logger)
	}))
	c.AddFunc("@every 30s", jobStatusManager.Instrument("metrics_refresh", func() error {
		refreshQueueGauges(requestQueue, engine, engineMetrics)
		return nil
	}))
	c.Start()
	defer c.Stop()

	h := handler.New(appConfig, logger, requestQueue, engine, tracker, adapters, db, registry, jobStatusManager)

	httpServer := http.NewHttpServer(appConfig, h, httpMetrics)

	httpServer.Run(":" + appConfig.ApiServer.Port)
}

// initNetworks builds the RPC adapter, signer and source account for
// every configured network. Signing keys come from Vault when it is
// configured, otherwise from the environment.
func initNetworks(appConfig *config.AppConfig, apiMetrics *monitoring.ExternalAPIMetrics, logger *logger.Logger) (
	map[model.Network]chainrpc.INetworkAdapter,
	map[model.Network]signer.ISigner,
	map[model.Network]string,
) {
	adapters := map[model.Network]chainrpc.INetworkAdapter{}
	signers := map[model.Network]signer.ISigner{}
	accounts := map[model.Network]string{}

	var vaultClient *vault.VaultClient
	if appConfig.Vault.Addr != "" {
		vaultClient = vault.New(appConfig.Vault.Addr, appConfig.Vault.KVSecretPath, appConfig.Vault.Role)
	}

	for name, networkConfig := range appConfig.Networks {
		network := model.Network(name)

		adapter, err := chainrpc.New(network, networkConfig, logger)
		if err != nil {
			logger.Error("Failed to init network adapter", map[string]string{
				"network": name,
				"error":   err.Error(),
			})
			continue
		}

		privateKey := networkConfig.SignerPrivateKey
		if vaultClient != nil {
			secret, err := vaultClient.GetKV(strings.ToUpper(name) + "_SIGNER_PRIVATE_KEY")
			if err != nil {
				logger.Error("Failed to load signing key from vault", map[string]string{
					"network": name,
					"error":   err.Error(),
				})
				continue
			}
			privateKey = secret
		}

		accountSigner, err := signer.NewFromHex(privateKey, big.NewInt(networkConfig.ChainID))
		if err != nil {
			logger.Error("Failed to init signer", map[string]string{
				"network": name,
				"error":   err.Error(),
			})
			continue
		}

		adapters[network] = monitoring.NewCircuitBreakerNetworkAdapter(adapter, monitoring.DefaultRPCCircuitBreakerConfig, apiMetrics, logger)
		signers[network] = accountSigner
		accounts[network] = accountSigner.Account()

		logger.Info("Network enabled", map[string]string{
			"network": name,
			"chainID": strconv.FormatInt(networkConfig.ChainID, 10),
			"account": accountSigner.Account(),
		})
	}

	return adapters, signers, accounts
}

func refreshQueueGauges(requestQueue requestqueue.IQueue, engine txqueue.IQueue, metrics *monitoring.EngineMetrics) {
	queueStatus := requestQueue.QueueStatus()
	for network, pending := range queueStatus.PendingPerNetwork {
		metrics.SetPendingRequests(string(network), float64(pending))
	}

	engineStatus := engine.Status()
	inFlight := map[string]float64{}
	for _, p := range engineStatus.Partitions {
		inFlight[string(p.Network)] += float64(p.InFlight)
	}
	for network, n := range inFlight {
		metrics.SetInFlightTx(network, n)
	}
}
