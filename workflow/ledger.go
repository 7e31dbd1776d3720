package workflow

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("github.com/mmdatafocus/travel_backend/workflow")

// Ledger propagates financial events to invoices, bookings, money accounts
// and the journal. Every public method is one transaction: either every
// effect commits or none does.
type Ledger struct {
	db      *gorm.DB
	cache   *config.Cache
	locker  *redislock.Client
	logger  *logrus.Logger
	lockTTL time.Duration
	now     func() time.Time
}

func NewLedger(env *config.Env) *Ledger {
	logger := env.Logger
	if logger == nil {
		logger = config.NewLogger()
	}
	return &Ledger{
		db:      env.DB,
		cache:   env.Cache,
		locker:  env.Locker,
		logger:  logger,
		lockTTL: config.LedgerLockTTL(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// run executes fn in a transaction while holding the distributed locks named
// by lockKeys. Row locks taken inside fn are what serialise writers on the
// database; the redis locks keep other instances from queueing on them.
func (l *Ledger) run(ctx context.Context, op string, lockKeys []string, fn func(tx *gorm.DB) error) error {
	ctx, span := tracer.Start(ctx, "Ledger."+op)
	defer span.End()
	span.SetAttributes(attribute.StringSlice("ledger.locks", lockKeys))

	release, err := l.obtainLocks(ctx, lockKeys...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer release()

	err = l.db.WithContext(ctx).Transaction(fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logFailure(op, err)
	}
	return err
}

func (l *Ledger) logFailure(op string, err error) {
	if isClientError(err) {
		l.logger.WithFields(logrus.Fields{
			"field": "Ledger",
			"func":  op,
		}).Debug(err.Error())
		return
	}
	config.LogError(l.logger, "workflow", op, "transaction rolled back", nil, err)
}

func isClientError(err error) bool {
	return utils.IsValidationError(err) ||
		utils.IsNotFoundError(err) ||
		utils.IsConflictError(err) ||
		utils.IsAccessDeniedError(err)
}

func (l *Ledger) rates(ctx context.Context) (models.RateTable, error) {
	return models.LoadRateTable(ctx, l.db, l.cache)
}

// requireLedgerRole guards operations on the journal itself.
func requireLedgerRole(scope models.AccessScope, resource string, id any) error {
	if scope.Customers.Unrestricted {
		return nil
	}
	return utils.NewAccessDeniedError(resource, id, "requires an accounting role")
}
