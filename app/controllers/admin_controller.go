package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// HandleAdminBillingSweep finalizes subscriptions whose paid period is over:
// cancellation was scheduled, the period end has passed, and the row has not
// been finalized yet. The hourly background sweep runs the same operation;
// this endpoint exists for support and for backfills after downtime.
func HandleAdminBillingSweep(c *fiber.Ctx) error {
	svc := newBillingService()
	count, err := svc.FinalizeExpired(c.Context(), time.Now())
	if err != nil {
		log.Errorf("[Admin] billing sweep failed: %v", err)
		return internalError(c, "Sweep failed")
	}
	return c.JSON(fiber.Map{"finalized": count})
}
