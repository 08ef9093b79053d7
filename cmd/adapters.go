package cmd

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/eykd/mintdraw/internal/allocator"
	"github.com/eykd/mintdraw/internal/config"
	"github.com/eykd/mintdraw/internal/fs"
	"github.com/eykd/mintdraw/internal/lock"
	"github.com/eykd/mintdraw/internal/logging"
	"github.com/eykd/mintdraw/internal/seed"
	"github.com/eykd/mintdraw/internal/store"
)

// projectAdapter runs each command against the project enclosing the
// working directory. Every call opens its own session.
type projectAdapter struct {
	getwd  func() (string, error)
	stderr io.Writer
	flags  *pflag.FlagSet
}

func newProjectAdapter(getwd func() (string, error), stderr io.Writer) *projectAdapter {
	return &projectAdapter{getwd: getwd, stderr: stderr}
}

// session holds the resources opened for one command.
type session struct {
	svc     *allocator.AllocatorService
	store   *store.Store
	lock    *lock.Lock
	log     *zap.Logger
	metrics *allocator.Metrics
	cfg     *config.Config
}

// open locates the project, loads configuration and acquires the project
// lock before opening the store. LevelDB refuses a second opener, so the
// lock must be held first. create bootstraps a project when none exists.
func (a *projectAdapter) open(ctx context.Context, create bool, seeder allocator.Seeder) (*session, error) {
	wd, err := a.getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	var p fs.Project
	if create {
		p, err = fs.FindOrCreate(wd)
	} else {
		p, err = fs.Find(wd)
	}
	if errors.Is(err, fs.ErrNoProject) {
		return nil, ErrNotInProject
	}
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(p.Dir(), GetConfigPath(), a.flags)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(a.stderr, cfg.Log, GetVerbose())
	if err != nil {
		return nil, err
	}

	lk := lock.NewFromPath(p.LockPath(), cfg.LockWait)
	if err := lk.TryLock(ctx); err != nil {
		return nil, err
	}

	st, err := store.Open(p.StatePath())
	if err != nil {
		_ = lk.Unlock()
		return nil, err
	}

	metrics, err := allocator.NewMetrics()
	if err != nil {
		_ = st.Close()
		_ = lk.Unlock()
		return nil, err
	}

	if seeder == nil {
		seeder = &seed.Crypto{Rand: rand.Reader}
	}

	logger.Debug("session opened", zap.String("project", p.Root))
	return &session{
		svc: allocator.NewAllocatorService(st, lk, seeder,
			allocator.WithLogger(logger),
			allocator.WithMetrics(metrics),
		),
		store:   st,
		lock:    lk,
		log:     logger,
		metrics: metrics,
		cfg:     cfg,
	}, nil
}

// close releases the session and folds any release error into err.
func (s *session) close(err error) error {
	errs := []error{err, s.store.Close()}
	if s.cfg.MetricsFile != "" {
		errs = append(errs, s.metrics.WriteTextfile(s.cfg.MetricsFile))
	}
	_ = s.log.Sync()
	errs = append(errs, s.lock.Unlock())
	return errors.Join(errs...)
}

func (a *projectAdapter) Init(ctx context.Context, name string, capacity uint64) (status *allocator.Status, err error) {
	s, err := a.open(ctx, true, nil)
	if err != nil {
		return nil, err
	}
	defer func() { err = s.close(err) }()
	return s.svc.Init(ctx, name, capacity)
}

func (a *projectAdapter) Draw(ctx context.Context, name string, count int, seedHex string) (ids []uint64, err error) {
	var seeder allocator.Seeder
	if seedHex != "" {
		chain, err := seed.NewChain(seedHex)
		if err != nil {
			return nil, err
		}
		seeder = chain
	}

	s, err := a.open(ctx, false, seeder)
	if err != nil {
		return nil, err
	}
	defer func() { err = s.close(err) }()
	return s.svc.DrawN(ctx, name, count)
}

func (a *projectAdapter) Status(ctx context.Context, name string) (status *allocator.Status, err error) {
	s, err := a.open(ctx, false, nil)
	if err != nil {
		return nil, err
	}
	defer func() { err = s.close(err) }()
	return s.svc.Status(ctx, name)
}

func (a *projectAdapter) List(ctx context.Context) (all []allocator.Status, err error) {
	s, err := a.open(ctx, false, nil)
	if err != nil {
		return nil, err
	}
	defer func() { err = s.close(err) }()
	return s.svc.List(ctx)
}

func (a *projectAdapter) Snapshot(ctx context.Context, name string) (snap *allocator.Snapshot, err error) {
	s, err := a.open(ctx, false, nil)
	if err != nil {
		return nil, err
	}
	defer func() { err = s.close(err) }()
	return s.svc.Snapshot(ctx, name)
}
