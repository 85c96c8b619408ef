package sampleapp

import (
	"context"
	"fmt"
	"time"

	"github.com/advdv/sutest/di"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ErrNameTooLong is returned for names longer than the configured maximum.
var ErrNameTooLong = errors.New("name too long")

// Clock tells the time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// GreeterOptions configures the greeter.
type GreeterOptions struct {
	Template      string `validate:"required"`
	MaxNameLength int    `default:"64" validate:"min=1,max=256"`
}

// Greeter greets people by name.
type Greeter interface {
	Greet(ctx context.Context, name string) (string, error)
}

type greeter struct {
	opts GreeterOptions
	logs *zap.Logger
}

// NewGreeter builds a greeter from the validated options.
func NewGreeter(o *di.Options[GreeterOptions], logs *zap.Logger) (Greeter, error) {
	opts, err := o.Value()
	if err != nil {
		return nil, err
	}

	return &greeter{opts: *opts, logs: logs.Named("greeter")}, nil
}

func (g *greeter) Greet(_ context.Context, name string) (string, error) {
	if len(name) > g.opts.MaxNameLength {
		return "", errors.Wrapf(ErrNameTooLong, "%d > %d", len(name), g.opts.MaxNameLength)
	}

	if name == "" {
		name = "stranger"
	}

	g.logs.Info("greeting", zap.String("name", name))
	return fmt.Sprintf(g.opts.Template, name), nil
}
