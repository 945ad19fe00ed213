package model

import "time"

// Payment 支付状态表。每订单一行原地更新，保存网关归一后的"当前"状态，
// 缺失时允许重建，不做追加日志。
type Payment struct {
	OrderID   string    `gorm:"primaryKey;type:varchar(64)"`
	Status    string    `gorm:"type:varchar(32);not null;default:'pending'"`
	ChargeID  string    `gorm:"type:varchar(128);index"` // 网关交易流水号
	Raw       string    `gorm:"type:longtext"`           // 网关原始报文留档
	Reason    string    `gorm:"type:varchar(64)"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
