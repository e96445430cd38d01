package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Transactional is satisfied by *txn.Runner.
type Transactional interface {
	Transactional() bool
}

// JobCounter is satisfied by *workers.Scheduler.
type JobCounter interface {
	Len() int
}

// Handler holds dependencies needed for health checks. Txn and Jobs are
// optional; when set their state is included in the response.
type Handler struct {
	Client  Pinger
	Txn     Transactional
	Jobs    JobCounter
	Log     *zap.Logger
	started time.Time
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		Client:  client,
		Log:     logger,
		started: time.Now(),
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	Transactions  string `json:"transactions,omitempty"` // "enabled" or "sequential"
	ScheduledJobs *int   `json:"scheduledJobs,omitempty"`
	Uptime        string `json:"uptime"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "transactions":"enabled", "scheduledJobs":2, "uptime":"1h2m3s" }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Uptime:   time.Since(h.started).Truncate(time.Second).String(),
	}
	if h.Txn != nil {
		resp.Transactions = "sequential"
		if h.Txn.Transactional() {
			resp.Transactions = "enabled"
		}
	}
	if h.Jobs != nil {
		n := h.Jobs.Len()
		resp.ScheduledJobs = &n
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		respond.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}
