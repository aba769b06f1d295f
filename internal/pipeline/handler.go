package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/catalogbridge/catalogbridge/internal/catalog"
	"github.com/catalogbridge/catalogbridge/internal/platform/httpx"
	"github.com/catalogbridge/catalogbridge/internal/pricing"
	"github.com/catalogbridge/catalogbridge/internal/settings"
	"github.com/catalogbridge/catalogbridge/internal/supplier"
	"github.com/catalogbridge/catalogbridge/jobs"
)

// Enqueuer submits pipeline tasks to the background queue.
type Enqueuer interface {
	EnqueuePipeline(ctx context.Context, taskType string, payload jobs.TriggerPayload) (*asynq.TaskInfo, bool, error)
}

// Handler wires the thin HTTP trigger layer over the pipeline.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	pricing   *pricing.Engine
	settings  *settings.Service
	supplier  supplier.Client
	products  catalog.Repository
	enqueuer  Enqueuer
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, engine *pricing.Engine, cfg *settings.Service, sup supplier.Client, products catalog.Repository, enqueuer Enqueuer) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		pricing:   engine,
		settings:  cfg,
		supplier:  sup,
		products:  products,
		enqueuer:  enqueuer,
		validator: validator.New(),
	}
}

// MountRoutes registers pipeline routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/ingest", h.trigger(jobs.TaskCatalogIngest))
	r.Post("/sync", h.trigger(jobs.TaskCatalogSync))
	r.Post("/sync-all", h.trigger(jobs.TaskCatalogSyncAll))
	r.Post("/pricing/reapply", h.trigger(jobs.TaskCatalogReapplyPricing))

	r.Get("/pricing/rules", h.listRules)
	r.Put("/pricing/rules/{manufacturer}", h.setRule)

	r.Get("/manufacturers", h.listManufacturers)
	r.Get("/manufacturers/enabled", h.getEnabledManufacturers)
	r.Put("/manufacturers/enabled", h.setEnabledManufacturers)

	r.Get("/products", h.listProducts)
	r.Get("/products/{key}", h.getProduct)
	r.Post("/products/{key}/sync", h.syncSpecificProduct)
}

// trigger returns a fire-and-forget handler for one bulk operation. The
// caller gets an immediate acknowledgment; outcomes are observed through
// product statuses afterwards.
func (h *Handler) trigger(taskType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jobs.TriggerPayload{TriggeredBy: r.RemoteAddr}
		info, alreadyQueued, err := h.enqueuer.EnqueuePipeline(r.Context(), taskType, payload)
		if err != nil {
			h.logger.Error("enqueue pipeline task", slog.String("task", taskType), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Enqueue Failed", "")
			return
		}
		body := map[string]string{"status": "started", "task": taskType}
		if alreadyQueued {
			body["status"] = "already running"
		} else if info != nil {
			body["jobId"] = info.ID
		}
		httpx.JSON(w, http.StatusAccepted, body)
	}
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"rules": h.pricing.Rules()})
}

type rulePayload struct {
	Mode             string   `json:"mode" validate:"required,oneof=AQ_NET LIST_DISCOUNT"`
	DiscountChain    string   `json:"discountChain"`
	MarkupPercentage float64  `json:"markupPercentage" validate:"gte=0"`
	OverridePrice    *float64 `json:"overridePrice" validate:"omitempty,gt=0"`
}

func (h *Handler) setRule(w http.ResponseWriter, r *http.Request) {
	manufacturer := chi.URLParam(r, "manufacturer")
	var body rulePayload
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rule := pricing.Rule{
		Manufacturer:     manufacturer,
		Mode:             pricing.Mode(body.Mode),
		DiscountChain:    body.DiscountChain,
		MarkupPercentage: body.MarkupPercentage,
		OverridePrice:    body.OverridePrice,
	}
	if err := h.pricing.SetRule(r.Context(), rule); err != nil {
		h.logger.Error("set pricing rule", slog.String("manufacturer", manufacturer), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rule": rule})
}

func (h *Handler) listManufacturers(w http.ResponseWriter, r *http.Request) {
	manufacturers, err := h.supplier.ListManufacturers(r.Context())
	if err != nil {
		h.logger.Error("list manufacturers", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Supplier Unavailable", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"manufacturers": manufacturers})
}

func (h *Handler) getEnabledManufacturers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.settings.Enabled(r.Context())
	if err != nil {
		h.logger.Error("read enabled manufacturers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"manufacturerIds": ids})
}

type enabledPayload struct {
	ManufacturerIDs []string `json:"manufacturerIds" validate:"required"`
}

func (h *Handler) setEnabledManufacturers(w http.ResponseWriter, r *http.Request) {
	var body enabledPayload
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.settings.SetEnabled(r.Context(), body.ManufacturerIDs); err != nil {
		h.logger.Error("set enabled manufacturers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"manufacturerIds": body.ManufacturerIDs})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 100
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = v
	}
	filter := catalog.ListFilter{
		Status:         catalog.Status(q.Get("status")),
		ManufacturerID: q.Get("manufacturerId"),
		Limit:          limit,
		Offset:         offset,
	}
	products, err := h.products.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetBySupplierID(r.Context(), chi.URLParam(r, "key"))
	if errors.Is(err, catalog.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"product": p})
}

// syncSpecificProduct is the synchronous fast path: failures propagate to
// the caller because this endpoint exists for interactive use.
func (h *Handler) syncSpecificProduct(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	p, err := h.service.SyncSpecificProduct(r.Context(), key)
	if errors.Is(err, ErrProductNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("sync specific product", slog.String("key", key), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Sync Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"product": p})
}
