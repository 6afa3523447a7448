package jwtauth

import "context"

type clientIPContextKey struct{}
type serviceContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Service uses it as the
// refresh throttle key and records it in audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// NewContext returns a copy of ctx carrying svc.
func NewContext(ctx context.Context, svc *Service) context.Context {
	return context.WithValue(ctx, serviceContextKey{}, svc)
}

// FromContext returns the Service stored by NewContext, if any.
func FromContext(ctx context.Context) (*Service, bool) {
	if ctx == nil {
		return nil, false
	}
	svc, ok := ctx.Value(serviceContextKey{}).(*Service)
	return svc, ok && svc != nil
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
