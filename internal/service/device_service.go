package service

import (
	"errors"
	"plan-beyond-server/internal/model"
	"plan-beyond-server/internal/utils"
	"strings"

	"gorm.io/gorm"
)

// IsTrusted 查询 (user, device) 的信任状态，记录不存在视为不受信任。
func (s *DeviceService) IsTrusted(userID uint, deviceID string) (bool, error) {
	if strings.TrimSpace(deviceID) == "" {
		return false, nil
	}
	device, err := s.deviceStore.FindDevice(userID, deviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return device.IsTrusted, nil
}

// RecordLogin 以既有信任状态 upsert 设备并刷新 last_login，返回该信任状态。
func (s *DeviceService) RecordLogin(userID uint, deviceID, deviceName string) (bool, error) {
	trusted, err := s.IsTrusted(userID, deviceID)
	if err != nil {
		return false, err
	}
	if err := s.Upsert(userID, deviceID, deviceName, trusted); err != nil {
		return false, err
	}
	return trusted, nil
}

// Upsert 写入设备记录，deviceID 为空时跳过。
func (s *DeviceService) Upsert(userID uint, deviceID, deviceName string, trusted bool) error {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil
	}
	return s.deviceStore.UpsertDevice(&model.Device{
		UserID:     userID,
		DeviceID:   deviceID,
		DeviceName: utils.SanitizeDeviceName(deviceName),
		IsTrusted:  trusted,
		LastLogin:  s.now(),
	})
}
