package middlewares

const (
	CtxRequestID = "request_id"

	ctxUserIDKey  = "principal.userID"
	ctxIsAdminKey = "principal.isAdmin"
)
