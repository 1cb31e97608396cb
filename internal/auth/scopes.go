package auth

const (
	ScopeOpenID        = "openid"
	ScopeProfile       = "profile"
	ScopeEmail         = "email"
	ScopeServicesRead  = "services:read"
	ScopeServicesWrite = "services:write"
	ScopeExecute       = "services:execute"
)

// AllScopes defines the full set of scopes used by the Swagger UI / Frontend
var AllScopes = []string{
	ScopeOpenID,
	ScopeProfile,
	ScopeEmail,
	ScopeServicesRead,
	ScopeServicesWrite,
	ScopeExecute,
}
