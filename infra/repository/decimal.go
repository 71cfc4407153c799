package repository

import (
	"database/sql/driver"

	"github.com/amirasaad/treasury/pkg/money"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Decimal stores a money.Amount. PostgreSQL keeps it in numeric(36,18);
// SQLite keeps the canonical string so no digit is lost to REAL affinity.
type Decimal money.Amount

func toDecimal(a money.Amount) Decimal { return Decimal(a) }

// Amount converts back to the domain value.
func (d Decimal) Amount() money.Amount { return money.Amount(d) }

// Value stores the amount as its decimal string.
func (d Decimal) Value() (driver.Value, error) {
	return money.Amount(d).Value()
}

// Scan parses the column through shopspring/decimal.
func (d *Decimal) Scan(src any) error {
	return (*money.Amount)(d).Scan(src)
}

// GormDBDataType picks the column type per dialect for AutoMigrate.
func (Decimal) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "sqlite" {
		return "text"
	}
	return "numeric(36,18)"
}

func optionalDecimal(a *money.Amount) *Decimal {
	if a == nil {
		return nil
	}
	d := toDecimal(*a)
	return &d
}

func optionalAmount(d *Decimal) *money.Amount {
	if d == nil {
		return nil
	}
	a := d.Amount()
	return &a
}
