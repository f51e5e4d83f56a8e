package ctxdata

import (
	"context"
)

const RoleStaff = "staff"

type traceIDKey struct{}
type staffIDKey struct{}
type roleKey struct{}

var (
	traceIDKeyInstance = traceIDKey{}
	staffIDKeyInstance = staffIDKey{}
	roleKeyInstance    = roleKey{}
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKeyInstance, traceID)
}

func GetTraceID(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(traceIDKeyInstance).(string)
	return traceID, ok
}

func WithStaffID(ctx context.Context, staffID string) context.Context {
	return context.WithValue(ctx, staffIDKeyInstance, staffID)
}

func GetStaffID(ctx context.Context) (string, bool) {
	staffID, ok := ctx.Value(staffIDKeyInstance).(string)
	return staffID, ok
}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKeyInstance, role)
}

func GetRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKeyInstance).(string)
	return role, ok
}

// WithStaff marks ctx as carrying a verified staff capability.
func WithStaff(ctx context.Context, staffID string) context.Context {
	return WithRole(WithStaffID(ctx, staffID), RoleStaff)
}

func IsStaff(ctx context.Context) bool {
	role, ok := GetRole(ctx)
	return ok && role == RoleStaff
}
