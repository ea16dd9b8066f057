package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/contentdesk/internal/client/client"
	"github.com/dmitrijs2005/contentdesk/internal/client/config"
	"github.com/dmitrijs2005/contentdesk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/contentdesk/internal/client/services"
	"github.com/dmitrijs2005/contentdesk/internal/filex"
	"github.com/dmitrijs2005/contentdesk/internal/logging"
	"github.com/spf13/pflag"
)

// runtime is everything a command needs: configuration, logger, local
// database, API client and the restored session.
type runtime struct {
	cfg      *config.Config
	log      logging.Logger
	db       *sql.DB
	api      *client.HTTPClient
	sessions *services.SessionStore
	logFile  *os.File
}

func openLog(cfg *config.Config, stderr io.Writer) (logging.Logger, *os.File, error) {
	w := stderr
	var f *os.File
	if cfg.LogFile != "" {
		path, err := filex.ExpandHome(cfg.LogFile)
		if err != nil {
			return nil, nil, err
		}
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
	}
	l, err := logging.New(cfg.LogLevel, w)
	if err != nil {
		if f != nil {
			_ = f.Close()
		}
		return nil, nil, err
	}
	return l, f, nil
}

// newRuntime loads configuration from fs and the environment, opens the
// state database and restores the persisted session.
func newRuntime(ctx context.Context, fs *pflag.FlagSet, stderr io.Writer) (_ *runtime, err error) {
	cfg, err := config.Load(fs)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	rt.log, rt.logFile, err = openLog(cfg, stderr)
	if err != nil {
		return nil, err
	}

	dir, err := filex.EnsureDir(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}

	rt.db, err = client.InitDatabase(ctx, filepath.Join(dir, config.DBFileName))
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	rt.api, err = client.NewHTTPClient(cfg.APIBaseURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(rt.log),
	)
	if err != nil {
		return nil, err
	}

	rt.sessions = services.NewSessionStore(rt.api, metadata.NewSQLiteStore(rt.db), rt.log)
	if _, err = rt.sessions.Restore(ctx); err != nil {
		return nil, err
	}

	rt.log.Debug(ctx, "runtime ready", "api", cfg.APIBaseURL, "state_dir", dir)
	return rt, nil
}

func (rt *runtime) Close() error {
	var errs []error
	if rt.db != nil {
		errs = append(errs, rt.db.Close())
	}
	if rt.logFile != nil {
		errs = append(errs, rt.logFile.Close())
	}
	return errors.Join(errs...)
}
