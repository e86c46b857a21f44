package engine

import (
	"golang.org/x/time/rate"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

// NewLimiter builds the rate.Limiter workers wait on before each request.
// A zero delay yields an unlimited limiter so Wait never blocks; a positive
// delay paces requests to one every req.Delay.
func NewLimiter(req *scanmodel.ScanRequest) *rate.Limiter {
	if req.Delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(req.Delay), 1)
}
