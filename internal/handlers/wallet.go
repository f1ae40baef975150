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

type WalletHandler struct {
	walletService wallet.Service
	log           *slog.Logger
}

func NewWalletHandler(walletService wallet.Service, log *slog.Logger) *WalletHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WalletHandler{
		walletService: walletService,
		log:           log,
	}
}

// GetWallet handles GET /api/wallet. Users without a wallet get a zero balance.
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.GetWallet(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.Success(c, fiber.Map{
				"wallet": fiber.Map{"user_id": claims.UserID, "balance": decimal.Zero},
			})
		}
		h.log.Error("failed to get wallet", slog.Uint64("user_id", uint64(claims.UserID)), sl.Err(err))
		return utils.InternalError(c, "failed to get wallet")
	}

	return utils.Success(c, fiber.Map{
		"wallet": w,
	})
}

// GetTransactions handles GET /api/wallet/transactions?page=&limit=
func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, wallet.DefaultPageSize, wallet.MaxPageSize)
	page, err := h.walletService.GetTransactionHistory(c.UserContext(), claims.UserID, p.Page, p.Limit)
	if err != nil {
		h.log.Error("failed to get transactions", slog.Uint64("user_id", uint64(claims.UserID)), sl.Err(err))
		return utils.InternalError(c, "failed to get transactions")
	}

	p.SetTotal(page.Total)
	return utils.Success(c, utils.NewPaginatedResponse(page.Transactions, p))
}

// Reconcile handles GET /api/wallet/reconcile
func (h *WalletHandler) Reconcile(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	report, err := h.walletService.Reconcile(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "wallet not found")
		}
		h.log.Error("failed to reconcile wallet", slog.Uint64("user_id", uint64(claims.UserID)), sl.Err(err))
		return utils.InternalError(c, "failed to reconcile wallet")
	}

	return utils.Success(c, report)
}
