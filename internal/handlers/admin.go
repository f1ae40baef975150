package handlers

import (
	"errors"
	"log/slog"

	"vipwallet/internal/lib/sl"
	"vipwallet/internal/services/wallet"
	"vipwallet/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type AdminHandler struct {
	walletService wallet.Service
	log           *slog.Logger
}

func NewAdminHandler(walletService wallet.Service, log *slog.Logger) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{walletService: walletService, log: log}
}

type depositInput struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" validate:"required,max=64"`
}

// RecordDeposit handles POST /api/admin/wallets/:userId/deposits. It is called
// by the payment collaborator once a payment has settled.
func (h *AdminHandler) RecordDeposit(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return utils.BadRequest(c, "invalid user id")
	}

	var input depositInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationFailed(c, fields)
	}

	tx, err := h.walletService.Deposit(c.UserContext(), userID, input.Amount, input.Reference)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrInvalidAmount), errors.Is(err, wallet.ErrMissingReference):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, wallet.ErrDuplicateDeposit):
			return utils.Conflict(c, err.Error())
		}
		h.log.Error("failed to record deposit", slog.Uint64("user_id", uint64(userID)), sl.Err(err))
		return utils.ServiceUnavailable(c, "failed to record deposit")
	}

	return utils.Created(c, fiber.Map{"transaction": tx})
}
