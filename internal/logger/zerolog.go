package logger

import (
	"context"

	"github.com/rs/zerolog"
)

func NewZerolog(log zerolog.Logger) *Zerolog {
	return &Zerolog{log: log}
}

// Zerolog logs through a zerolog.Logger.
type Zerolog struct {
	log zerolog.Logger
}

func (z *Zerolog) InfofCtx(ctx context.Context, template string, args ...any) {
	z.log.Info().Ctx(ctx).Msgf(template, args...)
}

func (z *Zerolog) ErrorfCtx(ctx context.Context, template string, args ...any) {
	z.log.Error().Ctx(ctx).Msgf(template, args...)
}
