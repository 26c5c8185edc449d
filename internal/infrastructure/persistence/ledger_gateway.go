package persistence

import (
	"context"
	"time"

	"github.com/clinic/backend/internal/domain/vip"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ChargeEntryModel is one billed charge line from the transactional ledger.
// The candidate engine never reads individual rows; it only consumes the
// per-customer aggregates built by the gateway queries below.
type ChargeEntryModel struct {
	ID               int64           `gorm:"primaryKey;autoIncrement"`
	PatientCode      string          `gorm:"type:varchar(50);not null;index"`
	ServiceDate      time.Time       `gorm:"type:date;not null;index"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	NoncoveredAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	CopayAmount      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	CreatedAt        time.Time
}

// TableName returns the table name for GORM
func (ChargeEntryModel) TableName() string {
	return "charge_entries"
}

// GormLedgerGateway implements LedgerSource over the charge_entries table
type GormLedgerGateway struct {
	db *gorm.DB
}

// NewGormLedgerGateway creates a new GormLedgerGateway
func NewGormLedgerGateway(db *gorm.DB) *GormLedgerGateway {
	return &GormLedgerGateway{db: db}
}

// ledgerScanRow is the scan target for the aggregate queries
type ledgerScanRow struct {
	Code              string
	TotalRevenue      decimal.Decimal
	NoncoveredRevenue decimal.Decimal
	CopayRevenue      decimal.Decimal
	VisitCount        int64
}

// FetchYearlySummaries returns per-customer aggregates for one year.
// Visit counts are distinct service days, so multiple charges billed on the
// same day count as one visit. The year filter is a date range, which works
// identically on postgres and sqlite.
func (g *GormLedgerGateway) FetchYearlySummaries(ctx context.Context, year int, codes []string) ([]vip.LedgerRow, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	query := g.aggregateQuery(ctx).
		Where("service_date >= ? AND service_date < ?", from, to)
	if len(codes) > 0 {
		query = query.Where("patient_code IN ?", codes)
	}

	return g.scanRows(query)
}

// FetchLifetimeSummaries returns per-customer aggregates across all years
func (g *GormLedgerGateway) FetchLifetimeSummaries(ctx context.Context, codes []string) ([]vip.LedgerRow, error) {
	query := g.aggregateQuery(ctx)
	if len(codes) > 0 {
		query = query.Where("patient_code IN ?", codes)
	}

	return g.scanRows(query)
}

func (g *GormLedgerGateway) aggregateQuery(ctx context.Context) *gorm.DB {
	return g.db.WithContext(ctx).
		Model(&ChargeEntryModel{}).
		Select(
			"patient_code AS code",
			"COALESCE(SUM(total_amount), 0) AS total_revenue",
			"COALESCE(SUM(noncovered_amount), 0) AS noncovered_revenue",
			"COALESCE(SUM(copay_amount), 0) AS copay_revenue",
			"COUNT(DISTINCT service_date) AS visit_count",
		).
		Group("patient_code")
}

func (g *GormLedgerGateway) scanRows(query *gorm.DB) ([]vip.LedgerRow, error) {
	var scanned []ledgerScanRow
	if err := query.Scan(&scanned).Error; err != nil {
		return nil, err
	}

	rows := make([]vip.LedgerRow, len(scanned))
	for i, s := range scanned {
		rows[i] = vip.LedgerRow{
			Code:              s.Code,
			TotalRevenue:      s.TotalRevenue,
			NoncoveredRevenue: s.NoncoveredRevenue,
			CopayRevenue:      s.CopayRevenue,
			VisitCount:        s.VisitCount,
		}
	}
	return rows, nil
}

// Ensure GormLedgerGateway implements LedgerSource
var _ vip.LedgerSource = (*GormLedgerGateway)(nil)
