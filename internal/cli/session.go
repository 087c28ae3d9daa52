package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/matchdag/internal/config"
	"github.com/roach88/matchdag/internal/engine"
	"github.com/roach88/matchdag/internal/store"
)

// session is a configured engine and the plan cache behind it, if any.
type session struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine
}

// openSession loads configuration and opens the plan cache when
// store.path is set. Run sequence numbers resume after the cache's last.
func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg}
	engineOpts := []engine.Option{engine.WithConfig(cfg)}
	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open plan cache", err)
		}
		stats, err := st.Stats(ctx)
		if err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, "failed to read plan cache", err)
		}
		s.store = st
		engineOpts = append(engineOpts, engine.WithStore(st), engine.WithClock(engine.NewClockAt(stats.MaxSeq)))
	}
	s.engine = engine.New(engineOpts...)
	return s, nil
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// loadFailure reports a document that could not be loaded and returns the
// command-error exit.
func loadFailure(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	msg := loadErr.Message
	if loadErr.Pos.IsValid() {
		msg = fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), msg)
	}
	if outErr := f.Error(loadErr.Code, msg, nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, "load failed", err)
}

// writeJSON writes an indented response. A non-empty failure marks the
// response as an error carrying data as well.
func writeJSON(w io.Writer, data any, code, failure string) error {
	response := CLIResponse{Status: "ok", Data: data}
	if failure != "" {
		response.Status = "error"
		response.Error = &CLIError{Code: code, Message: failure}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}
