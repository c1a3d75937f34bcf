package withdrawal

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
	"github.com/dwarvesf/withdrawal-engine/internal/requestqueue"
	"github.com/dwarvesf/withdrawal-engine/internal/statustracker"
	"github.com/dwarvesf/withdrawal-engine/internal/txqueue"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/config"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/logger"
	"github.com/dwarvesf/withdrawal-engine/internal/view"
)

// SubmitRequest is the body of a withdrawal submission. Amount is a
// decimal string in major units, e.g. "0.5".
type SubmitRequest struct {
	Amount         string `json:"amount" binding:"required"`
	ToAddress      string `json:"toAddress" binding:"required"`
	TokenAddress   string `json:"tokenAddress"`
	Network        string `json:"network" binding:"required"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type SubmitResponse struct {
	ID string `json:"id"`
}

type handler struct {
	requestQueue requestqueue.IQueue
	txQueue      txqueue.IQueue
	tracker      statustracker.ITracker
	logger       *logger.Logger
	appConfig    *config.AppConfig
}

func New(requestQueue requestqueue.IQueue, txQueue txqueue.IQueue, tracker statustracker.ITracker, logger *logger.Logger, appConfig *config.AppConfig) IHandler {
	return &handler{
		requestQueue: requestQueue,
		txQueue:      txQueue,
		tracker:      tracker,
		logger:       logger,
		appConfig:    appConfig,
	}
}

// Submit godoc
// @Summary Submit a withdrawal request
// @Description Validates and admits a withdrawal request. Resubmitting the same idempotency key returns the original withdrawal id.
// @id submitWithdrawal
// @Tags Withdrawal
// @Accept json
// @Produce json
// @Param request body SubmitRequest true "Withdrawal request parameters"
// @Success 200 {object} view.Response[SubmitResponse]
// @Failure 400 {object} view.ErrorResponse
// @Failure 500 {object} view.ErrorResponse
// @Router /withdrawal/request [post]
func (h *handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("[Submit][ShouldBindJSON]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}

	if err := validator.New().Struct(req); err != nil {
		h.logger.Error("[Submit][Validator]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}

	id, err := h.requestQueue.Submit(requestqueue.SubmitInput{
		Amount:         req.Amount,
		ToAddress:      req.ToAddress,
		TokenAddress:   req.TokenAddress,
		Network:        req.Network,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		var validation *model.ValidationError
		if errors.As(err, &validation) {
			h.logger.Error("[Submit][Validate]", map[string]string{
				"field": validation.Field,
				"error": validation.Reason,
			})
			c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
			return
		}
		h.logger.Error("[Submit][Submit]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, nil, "failed to submit withdrawal"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse(SubmitResponse{ID: id}, nil, nil, ""))
}

// Cancel godoc
// @Summary Cancel a pending withdrawal
// @Description Cancels a withdrawal that has not yet been handed to a transaction sequencer. Fails with 409 once a nonce may be committed.
// @id cancelWithdrawal
// @Tags Withdrawal
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Success 200 {object} view.MessageResponse
// @Failure 404 {object} view.ErrorResponse
// @Failure 409 {object} view.ErrorResponse
// @Router /withdrawal/request/{id} [delete]
func (h *handler) Cancel(c *gin.Context) {
	id := c.Param("id")

	err := h.requestQueue.Cancel(id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.JSON(http.StatusNotFound, view.CreateResponse[any](nil, err, nil, "withdrawal not found"))
			return
		}
		if errors.Is(err, model.ErrCannotCancel) {
			c.JSON(http.StatusConflict, view.CreateResponse[any](nil, err, nil, "withdrawal can no longer be cancelled"))
			return
		}
		h.logger.Error("[Cancel][Cancel]", map[string]string{
			"withdrawal_id": id,
			"error":         err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, nil, "failed to cancel withdrawal"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse(view.MessageResponse{Message: "withdrawal cancelled"}, nil, nil, ""))
}

// Status godoc
// @Summary Get withdrawal status
// @Description Returns the current state, transaction hash, confirmation count and full transition history for a withdrawal id.
// @id withdrawalStatus
// @Tags Withdrawal
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Success 200 {object} view.Response[model.StatusRecord]
// @Failure 404 {object} view.ErrorResponse
// @Router /withdrawal/status/{id} [get]
func (h *handler) Status(c *gin.Context) {
	id := c.Param("id")

	record, err := h.tracker.GetStatus(id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.JSON(http.StatusNotFound, view.CreateResponse[any](nil, err, nil, "withdrawal not found"))
			return
		}
		h.logger.Error("[Status][GetStatus]", map[string]string{
			"withdrawal_id": id,
			"error":         err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, nil, "failed to get withdrawal status"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse(record, nil, nil, ""))
}

// RequestQueueStatus godoc
// @Summary Request queue status
// @Description Operability snapshot of the admission queue: pending counts per network, oldest pending age and admission counters.
// @id requestQueueStatus
// @Tags Withdrawal
// @Produce json
// @Success 200 {object} view.Response[requestqueue.QueueStatus]
// @Router /withdrawal/request-queue/status [get]
func (h *handler) RequestQueueStatus(c *gin.Context) {
	c.JSON(http.StatusOK, view.CreateResponse(h.requestQueue.QueueStatus(), nil, nil, ""))
}

// TxQueueStatus godoc
// @Summary Transaction queue status
// @Description Operability snapshot of the transaction sequencers: in-flight counts and last allocated nonce per (network, source account) partition.
// @id txQueueStatus
// @Tags Withdrawal
// @Produce json
// @Success 200 {object} view.Response[txqueue.Status]
// @Router /withdrawal/tx-queue/status [get]
func (h *handler) TxQueueStatus(c *gin.Context) {
	c.JSON(http.StatusOK, view.CreateResponse(h.txQueue.Status(), nil, nil, ""))
}
