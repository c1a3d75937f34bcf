package monitoring

import (
	"context"
	"errors"
	"math/big"
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/withdrawal-engine/internal/chainrpc"
	"github.com/dwarvesf/withdrawal-engine/internal/model"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/logger"
)

// CircuitBreakerNetworkAdapter wraps a chainrpc.INetworkAdapter with
// circuit breaker functionality. Only transient failures count against
// the breaker; a chain rejection is a definitive answer from the node,
// not an outage.
type CircuitBreakerNetworkAdapter struct {
	wrapped        chainrpc.INetworkAdapter
	circuitBreaker *gobreaker.CircuitBreaker
	metrics        *ExternalAPIMetrics
	logger         *logger.Logger
	timeoutConfig  TimeoutConfig
	serviceName    string
}

var _ chainrpc.INetworkAdapter = (*CircuitBreakerNetworkAdapter)(nil)

// NewCircuitBreakerNetworkAdapter creates a new circuit breaker wrapper for a network adapter
func NewCircuitBreakerNetworkAdapter(wrapped chainrpc.INetworkAdapter, config CircuitBreakerConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerNetworkAdapter {
	return NewCircuitBreakerNetworkAdapterWithTimeout(wrapped, config, DefaultTimeoutConfig, metrics, logger)
}

// NewCircuitBreakerNetworkAdapterWithTimeout creates a new circuit breaker wrapper with custom timeout config
func NewCircuitBreakerNetworkAdapterWithTimeout(wrapped chainrpc.INetworkAdapter, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerNetworkAdapter {
	cb := &CircuitBreakerNetworkAdapter{
		wrapped:       wrapped,
		metrics:       metrics,
		logger:        logger,
		timeoutConfig: timeoutConfig,
		serviceName:   string(wrapped.Network()) + "_rpc",
	}

	settings := gobreaker.Settings{
		Name:        cb.serviceName,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.ConsecutiveFailureThreshold)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var rejection *model.ChainRejection
			return errors.As(err, &rejection)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state change", map[string]string{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.UpdateCircuitBreakerState(name, to)
		},
	}

	cb.circuitBreaker = gobreaker.NewCircuitBreaker(settings)
	return cb
}

// execute runs one RPC operation through the breaker with a timeout and
// metrics recording.
func (cb *CircuitBreakerNetworkAdapter) execute(ctx context.Context, operation string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	start := time.Now()

	result, err := cb.circuitBreaker.Execute(func() (interface{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, cb.timeoutConfig.RequestTimeout)
		defer cancel()
		return fn(opCtx)
	})

	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			cb.metrics.RecordTimeout(cb.serviceName, "request")
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// Breaker fast-fail never reached the node; report it as
			// transient so the caller backs off and retries.
			err = &model.TransientNetworkError{Network: cb.wrapped.Network(), Err: err}
		}
		cb.logger.Error("RPC call failed", map[string]string{
			"service":   cb.serviceName,
			"operation": operation,
			"error":     err.Error(),
		})
	}
	cb.metrics.RecordAPICall(cb.serviceName, operation, status, duration)

	return result, err
}

func (cb *CircuitBreakerNetworkAdapter) Network() model.Network {
	return cb.wrapped.Network()
}

func (cb *CircuitBreakerNetworkAdapter) ChainID() *big.Int {
	return cb.wrapped.ChainID()
}

func (cb *CircuitBreakerNetworkAdapter) SuggestFees(ctx context.Context) (*chainrpc.FeeParameters, error) {
	result, err := cb.execute(ctx, "suggest_fees", func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.SuggestFees(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*chainrpc.FeeParameters), nil
}

func (cb *CircuitBreakerNetworkAdapter) PendingNonce(ctx context.Context, account string) (uint64, error) {
	result, err := cb.execute(ctx, "pending_nonce", func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.PendingNonce(ctx, account)
	})
	if err != nil {
		return 0, err
	}
	return result.(uint64), nil
}

func (cb *CircuitBreakerNetworkAdapter) Broadcast(ctx context.Context, tx *ethtypes.Transaction) error {
	_, err := cb.execute(ctx, "broadcast", func(ctx context.Context) (interface{}, error) {
		return nil, cb.wrapped.Broadcast(ctx, tx)
	})
	return err
}

func (cb *CircuitBreakerNetworkAdapter) TransactionStatus(ctx context.Context, txHash string) (*chainrpc.TxStatus, error) {
	result, err := cb.execute(ctx, "transaction_status", func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.TransactionStatus(ctx, txHash)
	})
	if err != nil {
		return nil, err
	}
	return result.(*chainrpc.TxStatus), nil
}

// State exposes the current breaker state for health reporting
func (cb *CircuitBreakerNetworkAdapter) State() gobreaker.State {
	return cb.circuitBreaker.State()
}
