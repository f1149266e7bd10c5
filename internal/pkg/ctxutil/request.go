package ctxutil

import "context"

type requestDataKey struct{}

// RequestData is the authenticated principal attached by the auth middleware.
type RequestData struct {
	TokenString string
	SessionID   string
	EmployeeID  int64
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// EmployeeID returns the authenticated employee or 0.
func EmployeeID(ctx context.Context) int64 {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.EmployeeID
	}
	return 0
}
