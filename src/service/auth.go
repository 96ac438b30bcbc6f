package service

import "context"

type operatorKey struct{}

// WithOperator marks ctx as belonging to an authenticated operator, such as
// the CLI or an automation client holding the API secret
func WithOperator(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operatorKey{}, name)
}

// OperatorFrom returns the operator name carried by ctx
func OperatorFrom(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(operatorKey{}).(string)
	return name, ok && name != ""
}

func IsOperator(ctx context.Context) bool {
	_, ok := OperatorFrom(ctx)
	return ok
}
