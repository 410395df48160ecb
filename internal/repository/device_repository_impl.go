package repository

import (
	"plan-beyond-server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceRepository struct {
	db *gorm.DB
}

// FindDevice 按 (user_id, device_id) 查找设备记录。
func (r *DeviceRepository) FindDevice(userID uint, deviceID string) (*model.Device, error) {
	var device model.Device
	if err := r.db.Where("user_id = ? AND device_id = ?", userID, deviceID).First(&device).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

// UpsertDevice 插入设备，(user_id, device_id) 已存在时更新名称、信任状态与最后登录时间。
func (r *DeviceRepository) UpsertDevice(device *model.Device) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"device_name", "is_trusted", "last_login"}),
	}).Create(device).Error
}

func (r *DeviceRepository) ListDevicesByUserID(userID uint) ([]model.Device, error) {
	var devices []model.Device
	if err := r.db.Where("user_id = ?", userID).Order("last_login desc").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}
