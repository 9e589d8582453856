package logger

import "go.uber.org/zap"

// New builds the process logger: JSON production output in prod, the
// human-readable development encoder everywhere else.
func New(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
