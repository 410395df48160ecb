package model

import "time"

// Device 记录用户在某个客户端上的信任状态，(user_id, device_id) 唯一
type Device struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_devices_user_device,priority:1"`
	DeviceID   string    `json:"device_id" gorm:"not null;size:255;uniqueIndex:idx_devices_user_device,priority:2"`
	DeviceName string    `json:"device_name" gorm:"size:512"`
	IsTrusted  bool      `json:"is_trusted" gorm:"not null;default:false"`
	LastLogin  time.Time `json:"last_login"`
	User       User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;" json:"-"`
}
