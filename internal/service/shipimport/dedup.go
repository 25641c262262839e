package shipimport

import (
	"context"
	"time"

	"github.com/ignite/shipment-importer/internal/pkg/logger"
)

// dedupGate wraps a DuplicateChecker. Checker failures never fail a row:
// they are logged and treated as "not a duplicate".
type dedupGate struct {
	checker DuplicateChecker
	timeout time.Duration
}

// check returns a hit, or nil when disabled, clean or failed.
func (g *dedupGate) check(ctx context.Context, enabled bool, q DuplicateQuery) *DuplicateResult {
	if g.checker == nil || !enabled {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.checker.CheckDuplicate(callCtx, q)
	if err != nil {
		dedupChecks.WithLabelValues("error").Inc()
		collaboratorErrors.WithLabelValues("dedup").Inc()
		logger.Warn("[shipimport] duplicate check failed", "sender_org_id", q.SenderOrgID, "error", err.Error())
		return nil
	}
	if res == nil || !res.Duplicate {
		dedupChecks.WithLabelValues("miss").Inc()
		return nil
	}
	dedupChecks.WithLabelValues("hit").Inc()
	if res.Reason == "" {
		res.Reason = "possible duplicate of a recent shipment"
	}
	return res
}
