package models

import (
	"fmt"
	"time"
)

// CameraContext is the directory record a worker and its alerts are scoped to
type CameraContext struct {
	CameraID  string    `json:"camera_id" yaml:"camera_id" gorm:"primaryKey;size:64"`
	TenantID  string    `json:"tenant_id" yaml:"tenant_id" gorm:"size:64;index;not null"`
	BranchID  string    `json:"branch_id" yaml:"branch_id" gorm:"size:64;index;not null"`
	Name      string    `json:"camera_name" yaml:"name" gorm:"size:255"`
	StreamURL string    `json:"stream_url,omitempty" yaml:"stream_url" gorm:"size:1024"`
	IPAddress string    `json:"ip_address,omitempty" yaml:"ip_address" gorm:"size:255"`
	Port      int       `json:"port,omitempty" yaml:"port"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// TableName keeps the table name stable across model renames
func (CameraContext) TableName() string {
	return "cameras"
}

// StreamSource returns the URL a worker should read from. An explicit stream
// URL wins; otherwise an IP webcam style URL is built from the address.
func (c CameraContext) StreamSource() (string, error) {
	if c.StreamURL != "" {
		return c.StreamURL, nil
	}
	if c.IPAddress == "" {
		return "", fmtInvalid(fmt.Sprintf("camera %s has no stream url or ip address", c.CameraID))
	}
	port := c.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("http://%s:%d/video", c.IPAddress, port), nil
}

func fmtInvalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
