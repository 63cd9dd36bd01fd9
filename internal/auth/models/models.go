package models

// Role distinguishes the platform admin from company tenants.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCompany Role = "company"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCompany
}

// AdminSubject is the token subject used for the platform admin.
const AdminSubject = "admin"

// Principal is the resolved identity behind a request or a live connection.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// CanMutate reports whether p may change a record owned by ownerID.
// Records without an owner are admin-only.
func (p *Principal) CanMutate(ownerID string) bool {
	if p == nil {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	return ownerID != "" && ownerID == p.ID
}

// TokenResult is returned by a successful login.
type TokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
