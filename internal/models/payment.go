package models

import "time"

// BalanceRowID is the fixed primary key of the AdminBalance aggregate
const BalanceRowID = 1

// Payment is money paid by an owner for an inspection request
type Payment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PayerID   uint      `gorm:"not null;index" json:"payer_id"`
	RequestID *uint     `gorm:"index" json:"inspection_request_id,omitempty"`
	Amount    int64     `gorm:"not null" json:"amount"` // minor units
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (Payment) TableName() string {
	return "payments"
}

// LedgerEntry is an append-only credit to the collected-fees balance.
// A request can be credited at most once.
type LedgerEntry struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID uint      `gorm:"not null;uniqueIndex" json:"request_id"`
	PaymentID uint      `gorm:"not null;index" json:"payment_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// AdminBalance is the running total of collected fees. It is derived from the
// ledger and kept in a single row with ID == BalanceRowID.
type AdminBalance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (AdminBalance) TableName() string {
	return "admin_balance"
}
