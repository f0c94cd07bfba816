package revisionstats

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/mesosphere/marathon-scaletest/internal/common/scaleerrors"
)

type Config struct {
	// Conduit API endpoint, e.g., https://phabricator.example.com/api
	Endpoint string
	// Conduit API token. Never compiled in; pass it with --token or SCALETEST_TOKEN.
	Token       string
	Percentiles []int
	Timeout     time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Endpoint:    "https://phabricator.mesosphere.com/api",
		Percentiles: DefaultPercentiles,
		Timeout:     30 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.WithStack(&scaleerrors.ErrInvalidArgument{Name: "endpoint", Value: c.Endpoint, Message: "must not be empty"})
	}
	if c.Token == "" {
		return errors.WithStack(&scaleerrors.ErrInvalidArgument{Name: "token", Value: "", Message: "a Conduit API token is required"})
	}
	if len(c.Percentiles) == 0 {
		return errors.WithStack(&scaleerrors.ErrInvalidArgument{Name: "percentiles", Value: "[]", Message: "must not be empty"})
	}
	return nil
}

type App struct {
	Config *Config
	Out    io.Writer
	Clock  clock.PassiveClock
}

func New() *App {
	return &App{
		Config: DefaultConfig(),
		Out:    os.Stdout,
		Clock:  clock.RealClock{},
	}
}

// Run fetches the active revisions and prints the age of the configured percentiles.
func (a *App) Run(ctx context.Context) error {
	if err := a.Config.Validate(); err != nil {
		return err
	}
	revisions, err := NewClient(a.Config.Endpoint, a.Config.Token, a.Config.Timeout).ActiveRevisions(ctx)
	if err != nil {
		return err
	}
	log.Debugf("found %d active revisions", len(revisions))
	rows, err := Stats(revisions, a.Config.Percentiles, a.Clock.Now())
	if err != nil {
		return err
	}
	Show(a.Out, rows)
	return nil
}
