package shared

// TenantScoped is implemented by every entity that belongs to a single
// tenant.
type TenantScoped interface {
	Tenant() int64
}
