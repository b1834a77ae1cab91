package middleware

type ContextKey string

// request_id живёт только в reqctx — второго канала для него нет.
const (
	ContextUserID ContextKey = "user_id"
	ContextRole   ContextKey = "role"
)
