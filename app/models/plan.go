package models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// DefaultPlanSlug is the free tier every tenant without an active subscription falls back to.
const DefaultPlanSlug = "starter"

// Plan is a row of the static plan catalog. Nil limits mean unlimited.
type Plan struct {
	ID                      uint    `gorm:"primaryKey" json:"id"`
	Slug                    string  `gorm:"type:varchar(50);not null;uniqueIndex" json:"slug"`
	Name                    string  `gorm:"type:varchar(100);not null" json:"name"`
	Price                   float64 `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	MaxAppointmentsPerMonth *int    `gorm:"default:null" json:"max_appointments_per_month"`
	MaxProviders            *int    `gorm:"default:null" json:"max_providers"`
	HasSMSNotifications     bool    `gorm:"column:has_sms_notifications;default:false" json:"has_sms_notifications"`
	HasPushNotifications    bool    `gorm:"column:has_push_notifications;default:false" json:"has_push_notifications"`
	HasAdvancedReports      bool    `gorm:"column:has_advanced_reports;default:false" json:"has_advanced_reports"`
	HasPrioritySupport      bool    `gorm:"column:has_priority_support;default:false" json:"has_priority_support"`
	HasMultiUnits           bool    `gorm:"column:has_multi_units;default:false" json:"has_multi_units"`
	HasCustomAPI            bool    `gorm:"column:has_custom_api;default:false" json:"has_custom_api"`
	HasCustomIntegrations   bool    `gorm:"column:has_custom_integrations;default:false" json:"has_custom_integrations"`
	HasDedicatedManager     bool    `gorm:"column:has_dedicated_manager;default:false" json:"has_dedicated_manager"`
	HasSLA                  bool    `gorm:"column:has_sla;default:false" json:"has_sla"`
}

// Feature names accepted by Plan.Feature.
const (
	FeatureSMSNotifications  = "sms_notifications"
	FeaturePushNotifications = "push_notifications"
	FeatureAdvancedReports   = "advanced_reports"
)

// Feature returns the has_<name> flag of the plan. ok is false for unknown names.
func (p *Plan) Feature(name string) (enabled bool, ok bool) {
	if p == nil {
		return false, false
	}
	key := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "has_")
	switch key {
	case "sms_notifications":
		return p.HasSMSNotifications, true
	case "push_notifications":
		return p.HasPushNotifications, true
	case "advanced_reports":
		return p.HasAdvancedReports, true
	case "priority_support":
		return p.HasPrioritySupport, true
	case "multi_units":
		return p.HasMultiUnits, true
	case "custom_api":
		return p.HasCustomAPI, true
	case "custom_integrations":
		return p.HasCustomIntegrations, true
	case "dedicated_manager":
		return p.HasDedicatedManager, true
	case "sla":
		return p.HasSLA, true
	default:
		return false, false
	}
}

func intPtr(v int) *int { return &v }

// PlanCatalog is the seeded plan catalog.
func PlanCatalog() []Plan {
	return []Plan{
		{
			Slug:                    DefaultPlanSlug,
			Name:                    "Starter",
			Price:                   0,
			MaxAppointmentsPerMonth: intPtr(50),
			MaxProviders:            intPtr(1),
			HasPushNotifications:    true,
		},
		{
			Slug:                    "professional",
			Name:                    "Profissional",
			Price:                   79.90,
			MaxAppointmentsPerMonth: intPtr(500),
			MaxProviders:            intPtr(3),
			HasSMSNotifications:     true,
			HasPushNotifications:    true,
			HasAdvancedReports:      true,
			HasPrioritySupport:      true,
		},
		{
			Slug:                  "enterprise",
			Name:                  "Empresarial",
			Price:                 249.90,
			HasSMSNotifications:   true,
			HasPushNotifications:  true,
			HasAdvancedReports:    true,
			HasPrioritySupport:    true,
			HasMultiUnits:         true,
			HasCustomAPI:          true,
			HasCustomIntegrations: true,
			HasDedicatedManager:   true,
			HasSLA:                true,
		},
	}
}

// SeedPlans inserts catalog rows that do not exist yet. Existing rows are left
// untouched so admin edits survive restarts.
func SeedPlans(db *gorm.DB) error {
	for _, p := range PlanCatalog() {
		var existing Plan
		err := db.Where("slug = ?", p.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		plan := p
		if err := db.Create(&plan).Error; err != nil {
			return err
		}
	}
	return nil
}
