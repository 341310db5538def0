package auth

import "context"

type contextKey string

const claimsKey contextKey = "scan_claims"

// WithClaims returns a context carrying claims.
func WithClaims(ctx context.Context, claims *ScanClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims stored by RequireToken, if any.
func ClaimsFromContext(ctx context.Context) (*ScanClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*ScanClaims)
	return claims, ok && claims != nil
}

// ClientIDFromContext returns the client id of the request, or "anonymous".
func ClientIDFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok && claims.ClientID != "" {
		return claims.ClientID
	}
	return "anonymous"
}
