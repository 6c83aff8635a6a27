package app

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"booking-service/internal/config"
)

// App carries the handlers' shared dependencies. Integrations are nil when
// unconfigured; every call site treats that as "feature inactive".
type App struct {
	DB       *pgxpool.Pool
	Cfg      *config.Config
	Log      *zap.Logger
	Calendar *CalendarService
	Drive    *DriveTimeService
	Mail     *EmailService
	Webcal   *WebcalClient

	// Now is swappable in tests; defaults to UTC wall clock.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

func (a *App) logger() *zap.Logger {
	if a.Log != nil {
		return a.Log
	}
	return zap.NewNop()
}
