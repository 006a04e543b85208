package models

import (
	"time"

	"gorm.io/gorm"
)

// Address 地址簿（买家收货地址或店铺发货地址）
type Address struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                                // 主键
	OwnerType   string         `gorm:"type:varchar(16);not null;index:idx_address_owner" json:"owner_type"` // 归属类型（buyer/shop）
	OwnerID     uint           `gorm:"not null;index:idx_address_owner" json:"owner_id"`                    // 归属ID
	ContactName string         `gorm:"type:varchar(100);not null" json:"contact_name"`                      // 联系人
	Phone       string         `gorm:"type:varchar(32);not null" json:"phone"`                              // 联系电话
	Line1       string         `gorm:"type:varchar(255);not null" json:"line1"`                             // 详细地址
	Line2       string         `gorm:"type:varchar(255)" json:"line2"`                                      // 补充地址
	City        string         `gorm:"type:varchar(100)" json:"city"`                                       // 城市
	Region      string         `gorm:"type:varchar(100)" json:"region"`                                     // 省份/地区
	PostalCode  string         `gorm:"type:varchar(20)" json:"postal_code"`                                 // 邮编
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                             // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                             // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                      // 软删除时间
}

// TableName 指定表名
func (Address) TableName() string {
	return "addresses"
}

// AddressSnapshot 下单时的地址快照（不可变）
type AddressSnapshot struct {
	ID          uint      `gorm:"primarykey" json:"id"`                           // 主键
	Kind        string    `gorm:"type:varchar(16);not null" json:"kind"`          // 类型（pickup/delivery）
	SourceID    uint      `gorm:"index" json:"source_id"`                         // 来源地址ID
	ContactName string    `gorm:"type:varchar(100);not null" json:"contact_name"` // 联系人
	Phone       string    `gorm:"type:varchar(32);not null" json:"phone"`         // 联系电话
	Line1       string    `gorm:"type:varchar(255);not null" json:"line1"`        // 详细地址
	Line2       string    `gorm:"type:varchar(255)" json:"line2"`                 // 补充地址
	City        string    `gorm:"type:varchar(100)" json:"city"`                  // 城市
	Region      string    `gorm:"type:varchar(100)" json:"region"`                // 省份/地区
	PostalCode  string    `gorm:"type:varchar(20)" json:"postal_code"`            // 邮编
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                        // 创建时间
}

// TableName 指定表名
func (AddressSnapshot) TableName() string {
	return "address_snapshots"
}

// NewAddressSnapshot 按值复制地址
func NewAddressSnapshot(kind string, address *Address, now time.Time) *AddressSnapshot {
	if address == nil {
		return nil
	}
	return &AddressSnapshot{
		Kind:        kind,
		SourceID:    address.ID,
		ContactName: address.ContactName,
		Phone:       address.Phone,
		Line1:       address.Line1,
		Line2:       address.Line2,
		City:        address.City,
		Region:      address.Region,
		PostalCode:  address.PostalCode,
		CreatedAt:   now,
	}
}
