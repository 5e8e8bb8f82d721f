package domain

// TokenPair bundles the tokens returned by register, login and refresh.
// Tokens are never persisted; validity is self-contained in each token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Username     string
}

// Principal is the request-scoped identity attached by the auth middleware.
// It lives for a single request and is never shared across requests.
type Principal struct {
	Username string
	Role     Role
}
