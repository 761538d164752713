package utils

import "context"

type contextKey string

const (
	userIdKey   contextKey = "userId"
	userRoleKey contextKey = "userRole"
)

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return context.WithValue(ctx, userIdKey, userId)
}

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIdKey).(int)
	return id, ok
}

func SetUserRoleInContext(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, userRoleKey, role)
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(userRoleKey).(string)
	return role, ok
}
