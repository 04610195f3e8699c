package applicant

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMoneyFits(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"3000.01", true},
		{"3000.010", true},
		{"3.004", false},
		{"1.001", false},
		{"9999999999999999.99", true},
		{"10000000000000000", false},
		{"-9999999999999999.99", true},
		{"-10000000000000000", false},
	}
	for _, tt := range tests {
		if got := MoneyFits(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("MoneyFits(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMoney_ColumnTypePerDialect(t *testing.T) {
	tests := []struct {
		name string
		d    gorm.Dialector
		want string
	}{
		{"mysql", mysql.New(mysql.Config{}), "decimal(18,2)"},
		{"sqlite", sqlite.Open(":memory:"), "text"},
	}
	for _, tt := range tests {
		db := &gorm.DB{Config: &gorm.Config{Dialector: tt.d}}
		if got := (Money{}).GormDBDataType(db, nil); got != tt.want {
			t.Errorf("%s column type = %q, want %q", tt.name, got, tt.want)
		}
	}
}
