package models

import "time"

// CanonicalDeviceIDPrefix prefixes every server-issued device id.
const CanonicalDeviceIDPrefix = "device_"

// Device is a mobile installation registered against a tenant. Rows are never deleted.
type Device struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CanonicalDeviceID string    `gorm:"type:varchar(80);not null;uniqueIndex" json:"canonical_device_id"`
	LocalDeviceID     string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_devices_local_tenant,priority:1" json:"local_device_id"`
	TenantID          uint      `gorm:"not null;uniqueIndex:ux_devices_local_tenant,priority:2;index:idx_devices_tenant_owner,priority:1" json:"tenant_id"`
	IsOwner           bool      `gorm:"default:false;index:idx_devices_tenant_owner,priority:2" json:"is_owner"`
	Brand             string    `gorm:"type:varchar(100);default:''" json:"brand"`
	Model             string    `gorm:"type:varchar(100);default:''" json:"model"`
	OSName            string    `gorm:"column:os_name;type:varchar(50);default:''" json:"os_name"`
	OSVersion         string    `gorm:"column:os_version;type:varchar(50);default:''" json:"os_version"`
	Manufacturer      string    `gorm:"type:varchar(100);default:''" json:"manufacturer"`
	DeviceType        string    `gorm:"type:varchar(30);default:''" json:"device_type"`
	AppVersion        string    `gorm:"type:varchar(30);default:''" json:"app_version"`
	BuildNumber       string    `gorm:"type:varchar(30);default:''" json:"build_number"`
	LastSeenAt        time.Time `json:"last_seen_at"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DeviceFingerprint is what the client reports about itself on every registration.
type DeviceFingerprint struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	OSName       string `json:"os_name"`
	OSVersion    string `json:"os_version"`
	Manufacturer string `json:"manufacturer"`
	DeviceType   string `json:"device_type"`
	AppVersion   string `json:"app_version"`
	BuildNumber  string `json:"build_number"`
}

// Fingerprint returns the stored fingerprint of d.
func (d *Device) Fingerprint() DeviceFingerprint {
	return DeviceFingerprint{
		Brand:        d.Brand,
		Model:        d.Model,
		OSName:       d.OSName,
		OSVersion:    d.OSVersion,
		Manufacturer: d.Manufacturer,
		DeviceType:   d.DeviceType,
		AppVersion:   d.AppVersion,
		BuildNumber:  d.BuildNumber,
	}
}

// ApplyFingerprint overwrites the stored fingerprint fields.
func (d *Device) ApplyFingerprint(fp DeviceFingerprint) {
	d.Brand = fp.Brand
	d.Model = fp.Model
	d.OSName = fp.OSName
	d.OSVersion = fp.OSVersion
	d.Manufacturer = fp.Manufacturer
	d.DeviceType = fp.DeviceType
	d.AppVersion = fp.AppVersion
	d.BuildNumber = fp.BuildNumber
}
