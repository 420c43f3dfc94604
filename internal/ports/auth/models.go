package auth

// Roles que emite el identity provider. El core los confía tal cual;
// acá no se autentica nada.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	Role   string // user | admin
}

// IsAdmin reporta si los claims traen el rol privilegiado.
func (c Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
