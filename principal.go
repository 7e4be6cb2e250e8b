package shopcore

// Capabilities granted to authenticated principals. The admin flag in token
// claims is expanded into a capability set here so richer roles can be added
// later without changing the guard's contract.
const (
	// CapOrdersPlace allows placing orders and reading one's own orders.
	CapOrdersPlace = "orders:place"
	// CapOrdersReadAny allows reading any user's orders.
	CapOrdersReadAny = "orders:read_any"
	// CapOrdersManage allows status transitions on any order.
	CapOrdersManage = "orders:manage"
	// CapProductsManage allows catalog mutation.
	CapProductsManage = "products:manage"
)

// Principal is the authenticated identity for one request. It is derived
// from verified token claims and never persisted.
type Principal struct {
	SubjectID    int64
	Username     string
	Admin        bool
	Capabilities []string
}

// NewPrincipal builds a Principal with the capability set implied by the
// admin flag.
func NewPrincipal(subjectID int64, username string, admin bool) *Principal {
	caps := []string{CapOrdersPlace}
	if admin {
		caps = append(caps, CapOrdersReadAny, CapOrdersManage, CapProductsManage)
	}
	return &Principal{
		SubjectID:    subjectID,
		Username:     username,
		Admin:        admin,
		Capabilities: caps,
	}
}

// Can reports whether the principal holds the given capability.
func (p *Principal) Can(capability string) bool {
	if p == nil {
		return false
	}
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
