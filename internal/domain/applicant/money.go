package applicant

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Money columns keep at most MoneyIntDigits integer digits and MoneyScale fraction digits.
const (
	MoneyScale     = 2
	MoneyIntDigits = 16
)

var moneyLimit = decimal.New(1, MoneyIntDigits)

// MoneyFits reports whether d is stored exactly in a money column.
func MoneyFits(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale)) && d.Abs().LessThan(moneyLimit)
}

// Money is a nullable amount column. SQLite gets TEXT because its NUMERIC
// affinity would store the value as a REAL.
type Money struct{ decimal.NullDecimal }

func NewMoney(d decimal.Decimal) Money { return Money{decimal.NewNullDecimal(d)} }

func (Money) GormDataType() string { return "decimal" }

func (Money) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "sqlite" {
		return "text"
	}
	return "decimal(18,2)"
}
