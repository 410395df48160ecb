package repository

import "plan-beyond-server/internal/model"

type DeviceStore interface {
	FindDevice(userID uint, deviceID string) (*model.Device, error)
	UpsertDevice(device *model.Device) error
	ListDevicesByUserID(userID uint) ([]model.Device, error)
}
