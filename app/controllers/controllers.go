package controllers

// Controllers groups every HTTP controller the router mounts.
type Controllers struct {
	Health       *HealthController
	Plan         *PlanController
	Tenant       *TenantController
	Service      *ServiceController
	Appointment  *AppointmentController
	Feedback     *FeedbackController
	Device       *DeviceController
	Verification *VerificationController
	SMSLog       *SMSLogController
	Analytics    *AnalyticsController
	Billing      *BillingController
}
