package ctxutil

import "context"

type requestDataKey struct{}

// RequestData carries the caller identity resolved by the auth middleware.
// Subject is empty when the API runs without bearer auth.
type RequestData struct {
	Subject  string
	ClientIP string
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
