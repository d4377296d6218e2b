// Package stream drives one subscriber: it seeds a snapshot, then
// periodically re-reads every tracked token and pushes only what changed.
package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dexscreener_stream/metrics"
	"dexscreener_stream/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Source is what the loop reads records from.
type Source interface {
	GetOne(ctx context.Context, address string) (models.Record, error)
	GetAll(ctx context.Context) ([]models.Record, error)
}

// Sender delivers one record to the subscriber. An error means the
// subscriber can no longer be reached.
type Sender interface {
	Send(ctx context.Context, rec models.Record) error
}

// ErrClosed is returned by Run on a session that already ended.
var ErrClosed = errors.New("session closed")

type Options struct {
	Period time.Duration
	Logger *zap.SugaredLogger
}

// Session is owned by a single goroutine; none of its methods may be
// called concurrently.
type Session struct {
	id       string
	source   Source
	sender   Sender
	period   time.Duration
	log      *zap.SugaredLogger
	state    models.SessionState
	tokens   []string
	lastSent map[string]models.Record

	rounds      int64
	pushed      int64
	fetchErrors int64
}

// NewSession loads the initial snapshot. The snapshot is the diff baseline
// and is not pushed. If it cannot be loaded the session is returned closed
// along with the error.
func NewSession(ctx context.Context, source Source, sender Sender, opts Options) (*Session, error) {
	if opts.Period <= 0 {
		opts.Period = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	id := uuid.New().String()
	s := &Session{
		id:       id,
		source:   source,
		sender:   sender,
		period:   opts.Period,
		log:      opts.Logger.With("session_id", id),
		state:    models.StateConnecting,
		lastSent: make(map[string]models.Record),
	}

	snapshot, err := source.GetAll(ctx)
	if err != nil {
		s.state = models.StateClosed
		return s, fmt.Errorf("load snapshot: %w", err)
	}

	// Later duplicates overwrite earlier ones, as they do in the cache.
	for _, rec := range snapshot {
		if _, seen := s.lastSent[rec.Address]; !seen {
			s.tokens = append(s.tokens, rec.Address)
		}
		s.lastSent[rec.Address] = rec
	}

	s.state = models.StateStreaming
	s.log.Infow("Session started", "tokens", len(s.tokens))
	return s, nil
}

func (s *Session) ID() string { return s.id }
func (s *Session) State() models.SessionState { return s.state }

// Tokens returns the tracked addresses in round order.
func (s *Session) Tokens() []string {
	return append([]string(nil), s.tokens...)
}

func (s *Session) Stats() models.SessionStats {
	return models.SessionStats{
		SessionID:   s.id,
		Tokens:      len(s.tokens),
		Rounds:      s.rounds,
		Pushed:      s.pushed,
		FetchErrors: s.fetchErrors,
	}
}

// Run repeats rounds every period until ctx is done or a send fails. It
// returns nil when stopped through ctx.
func (s *Session) Run(ctx context.Context) error {
	if s.state != models.StateStreaming {
		return ErrClosed
	}
	defer s.close()

	for {
		if _, err := s.Round(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		timer := time.NewTimer(s.period)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Round checks every tracked token once, in order, and pushes the ones that
// differ from what was last sent. A failed fetch is logged and skipped; only
// a failed send or a done ctx ends the round with an error.
func (s *Session) Round(ctx context.Context) (int, error) {
	if s.state != models.StateStreaming {
		return 0, ErrClosed
	}

	start := time.Now()
	defer func() { metrics.RecordRoundDuration(time.Since(start)) }()
	s.rounds++

	sent := 0
	for _, address := range s.tokens {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		rec, err := s.source.GetOne(ctx, address)
		if err != nil {
			if ctx.Err() != nil {
				return sent, ctx.Err()
			}
			s.fetchErrors++
			metrics.RoundFetchError()
			s.log.Warnw("Token fetch failed", "address", address, "error", err)
			continue
		}

		if last, ok := s.lastSent[address]; ok && last == rec {
			continue
		}

		if err := s.sender.Send(ctx, rec); err != nil {
			return sent, fmt.Errorf("send %s: %w", address, err)
		}
		s.lastSent[address] = rec
		s.pushed++
		sent++
		metrics.RecordPushed()
	}

	s.log.Debugw("Round finished", "round", s.rounds, "sent", sent, "took", time.Since(start))
	return sent, nil
}

func (s *Session) close() {
	s.state = models.StateClosed
	st := s.Stats()
	s.log.Infow("Session closed",
		"tokens", st.Tokens,
		"rounds", st.Rounds,
		"pushed", st.Pushed,
		"fetch_errors", st.FetchErrors)
}
