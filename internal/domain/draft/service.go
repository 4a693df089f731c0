package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cryptoutil "hrify/internal/platform/crypto"
)

const defaultSaveAttempts = 8

type Service struct {
	store    Store
	sealer   *cryptoutil.Sealer
	events   *EventLog
	attempts int
}

type Option func(*Service)

func WithEventLog(events *EventLog) Option {
	return func(s *Service) {
		s.events = events
	}
}

func WithSealer(sealer *cryptoutil.Sealer) Option {
	return func(s *Service) {
		s.sealer = sealer
	}
}

// WithSaveAttempts bounds how often Save re-reads after a version conflict.
func WithSaveAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.attempts = n
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, attempts: defaultSaveAttempts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the owner's draft, or nil when none exists or the stored
// document cannot be decoded. Failures are logged, never returned.
func (s *Service) Load(ctx context.Context, owner Owner) *Draft {
	rec, err := s.store.Get(ctx, owner.Key())
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.Warn("draft load failed", "owner", owner.Key(), "err", err)
		return nil
	}
	d, err := s.decode(rec)
	if err != nil {
		slog.Warn("draft document malformed", "owner", owner.Key(), "version", rec.Version, "err", err)
		return nil
	}
	return d
}

// Save merges one step into the freshly read record and writes it back
// conditionally on the version that was read. Conflicts are retried against
// the newer record so edits to other steps survive.
func (s *Service) Save(ctx context.Context, owner Owner, step Step, data StepData) (*Draft, error) {
	if data == nil || data.Step() != step {
		return nil, ErrStepMismatch
	}
	key := owner.Key()
	for attempt := 1; attempt <= s.attempts; attempt++ {
		current, version, err := s.current(ctx, key)
		if err != nil {
			return nil, err
		}
		current.Apply(data)

		doc, err := s.encode(current)
		if err != nil {
			return nil, err
		}
		rec, err := s.store.Put(ctx, key, doc, version)
		if errors.Is(err, ErrConflict) {
			slog.Debug("draft save conflict", "owner", key, "step", step, "attempt", attempt)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			slog.Warn("draft save failed", "owner", key, "step", step, "err", err)
			return nil, err
		}

		current.Version = rec.Version
		current.UpdatedAt = rec.UpdatedAt
		s.events.Record(ctx, owner, ActionSave, step, rec.Version)
		return current, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrConflict, s.attempts)
}

// current reads the stored draft for a merge. A malformed document is
// replaced rather than merged into, keeping its version for the conditional write.
func (s *Service) current(ctx context.Context, key string) (*Draft, int64, error) {
	rec, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return &Draft{}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	d, err := s.decode(rec)
	if err != nil {
		slog.Warn("overwriting malformed draft", "owner", key, "version", rec.Version, "err", err)
		return &Draft{}, rec.Version, nil
	}
	return d, rec.Version, nil
}

func (s *Service) Clear(ctx context.Context, owner Owner) error {
	if err := s.store.Delete(ctx, owner.Key()); err != nil {
		slog.Warn("draft clear failed", "owner", owner.Key(), "err", err)
		return err
	}
	s.events.Record(ctx, owner, ActionReset, "", 0)
	return nil
}

// Submitted removes the draft after the employee record was written upstream.
func (s *Service) Submitted(ctx context.Context, owner Owner, version int64) error {
	if err := s.store.Delete(ctx, owner.Key()); err != nil {
		slog.Warn("draft clear after submit failed", "owner", owner.Key(), "err", err)
		return err
	}
	s.events.Record(ctx, owner, ActionSubmit, "", version)
	return nil
}

// Purge drops drafts not written since cutoff.
func (s *Service) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.store.PurgeBefore(ctx, cutoff)
}

func (s *Service) History(ctx context.Context, owner Owner, limit int) ([]Event, error) {
	return s.events.List(ctx, owner, limit)
}

func (s *Service) decode(rec Record) (*Draft, error) {
	var d Draft
	if err := json.Unmarshal(rec.Doc, &d); err != nil {
		return nil, err
	}
	if d.AccountDetails != nil && d.AccountDetails.Password != "" {
		plain, err := s.sealer.Open(d.AccountDetails.Password)
		if err != nil {
			slog.Warn("draft password could not be opened", "owner", rec.Key, "err", err)
			plain = ""
		}
		d.AccountDetails.Password = plain
	}
	d.Version = rec.Version
	d.UpdatedAt = rec.UpdatedAt
	return &d, nil
}

func (s *Service) encode(d *Draft) ([]byte, error) {
	out := d.Clone()
	if out.AccountDetails != nil && out.AccountDetails.Password != "" {
		sealed, err := s.sealer.Seal(out.AccountDetails.Password)
		if err != nil {
			return nil, err
		}
		out.AccountDetails.Password = sealed
	}
	return json.Marshal(out)
}
