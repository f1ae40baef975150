package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"vipwallet/internal/lib/sl"
	"vipwallet/internal/services/vip"
	"vipwallet/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// IdempotencyHeader carries the client's deduplication key for purchases.
const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

type VIPHandler struct {
	vipService vip.Service
	log        *slog.Logger
}

func NewVIPHandler(vipService vip.Service, log *slog.Logger) *VIPHandler {
	if log == nil {
		log = slog.Default()
	}
	return &VIPHandler{vipService: vipService, log: log}
}

type purchaseInput struct {
	PackageID uint `json:"package_id" validate:"required"`
}

// PurchaseVIP handles POST /api/listings/:listingId/vip
func (h *VIPHandler) PurchaseVIP(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	listingID, err := parseID(c, "listingId")
	if err != nil {
		return utils.BadRequest(c, "invalid listing id")
	}

	var input purchaseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationFailed(c, fields)
	}

	key := c.Get(IdempotencyHeader)
	if len(key) > maxIdempotencyKeyLength {
		return utils.BadRequest(c, "idempotency key too long")
	}

	result, err := h.vipService.Purchase(c.UserContext(), vip.PurchaseRequest{
		ActorID:        claims.UserID,
		ListingID:      listingID,
		PackageID:      input.PackageID,
		IdempotencyKey: key,
	})
	if err != nil {
		return h.purchaseError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"balance":        result.Balance,
		"transaction_id": result.TransactionID,
		"expires_at":     result.ExpiresAt,
		"tier":           result.Tier,
		"permanent":      result.Permanent,
	})
}

// purchaseError maps orchestrator errors to HTTP statuses.
func (h *VIPHandler) purchaseError(c *fiber.Ctx, err error) error {
	var fundsErr *vip.InsufficientFundsError
	var stateErr *vip.InvalidStateError
	var notFoundErr *vip.NotFoundError

	switch {
	case errors.As(err, &fundsErr):
		return utils.Respond(c, fiber.StatusPaymentRequired, fiber.Map{
			"error":   "insufficient funds",
			"balance": fundsErr.Balance,
			"price":   fundsErr.Price,
		})
	case errors.Is(err, vip.ErrUnauthorized):
		return utils.Forbidden(c, "listing not owned by caller")
	case errors.As(err, &stateErr):
		return utils.Respond(c, fiber.StatusConflict, fiber.Map{
			"error":  "listing cannot be promoted",
			"status": stateErr.Status,
		})
	case errors.As(err, &notFoundErr):
		return utils.NotFound(c, notFoundErr.Resource+" not found")
	case errors.Is(err, vip.ErrDuplicateRequest):
		return utils.Conflict(c, "request with this idempotency key is in progress")
	case errors.Is(err, vip.ErrTransient):
		return utils.ServiceUnavailable(c, "temporarily unavailable, try again")
	default:
		h.log.Error("unexpected purchase error", sl.Err(err))
		return utils.InternalError(c, "failed to purchase package")
	}
}

// ListGrants handles GET /api/listings/:listingId/vip/grants
func (h *VIPHandler) ListGrants(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	listingID, err := parseID(c, "listingId")
	if err != nil {
		return utils.BadRequest(c, "invalid listing id")
	}

	grants, err := h.vipService.ListGrants(c.UserContext(), claims.UserID, listingID)
	if err != nil {
		switch {
		case errors.Is(err, vip.ErrUnauthorized):
			return utils.Forbidden(c, "listing not owned by caller")
		case errors.Is(err, vip.ErrTransient):
			return utils.ServiceUnavailable(c, "temporarily unavailable, try again")
		}
		h.log.Error("failed to list grants", sl.Err(err))
		return utils.InternalError(c, "failed to list grants")
	}

	return utils.Success(c, fiber.Map{"grants": grants})
}

// ListPackages handles GET /api/vip/packages
func (h *VIPHandler) ListPackages(c *fiber.Ctx) error {
	packages, err := h.vipService.ListPackages(c.UserContext())
	if err != nil {
		h.log.Error("failed to list packages", sl.Err(err))
		return utils.ServiceUnavailable(c, "temporarily unavailable, try again")
	}
	return utils.Success(c, fiber.Map{"packages": packages})
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
