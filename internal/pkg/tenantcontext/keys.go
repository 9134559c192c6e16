package tenantcontext

// Shared Locals keys used across controllers and middlewares
const (
	KeyTenant        = "tenant"
	KeyTenantID      = "tenant_id"
	KeyDeviceID      = "device_id"
	KeyPlan          = "plan"
	KeyQuota         = "quota"
	KeyAdminSubject  = "admin_subject"
	HeaderTenantID   = "X-Tenant-ID"
	HeaderDeviceID   = "X-Device-ID"
	QueryTenantID    = "tenant_id"
	HeaderAdminToken = "Authorization"
)
