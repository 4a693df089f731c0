package wizard

import (
	"context"
	"time"

	"hrify/internal/domain/draft"
)

// Drafts is the persistence the session synchronizes with.
type Drafts interface {
	Load(ctx context.Context, owner draft.Owner) *draft.Draft
	Save(ctx context.Context, owner draft.Owner, step draft.Step, data draft.StepData) (*draft.Draft, error)
	Clear(ctx context.Context, owner draft.Owner) error
	Submitted(ctx context.Context, owner draft.Owner, version int64) error
}

// Session holds the in-memory draft for one editing session. It is not safe
// for concurrent use; concurrency is resolved by the draft store.
type Session struct {
	drafts Drafts
	owner  draft.Owner
	now    time.Time
	data   draft.Draft
	stored bool
}

// Defaults is the blank draft: empty fields and a leave bank expiring on
// Dec 31 of now's year.
func Defaults(now time.Time) draft.Draft {
	expiry := time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	return draft.Draft{
		PersonalDetails:         &draft.PersonalDetails{},
		AccountDetails:          &draft.AccountDetails{},
		ContactDetails:          &draft.ContactDetails{},
		EmergencyContactDetails: &draft.EmergencyContactDetails{},
		LeavesCountDetails:      &draft.LeavesCountDetails{ExpiryDate: &expiry},
	}
}

func OpenSession(ctx context.Context, drafts Drafts, owner draft.Owner, now time.Time) *Session {
	s := &Session{drafts: drafts, owner: owner, now: now}
	if stored := drafts.Load(ctx, owner); stored != nil {
		s.data = *stored
		s.stored = true
	} else {
		s.data = Defaults(now)
	}
	return s
}

func (s *Session) Owner() draft.Owner {
	return s.owner
}

// Stored reports whether the session started from a persisted draft.
func (s *Session) Stored() bool {
	return s.stored
}

// FormData returns a copy of the current draft with absent steps defaulted.
func (s *Session) FormData() draft.Draft {
	out := s.data.Clone()
	defaults := Defaults(s.now)
	for _, step := range draft.Steps {
		if out.Get(step) == nil {
			out.Apply(defaults.Get(step))
		}
	}
	return *out
}

// absentSteps lists the steps the session holds no data for.
func (s *Session) absentSteps() []draft.Step {
	var out []draft.Step
	for _, step := range draft.Steps {
		if s.data.Get(step) == nil {
			out = append(out, step)
		}
	}
	return out
}

// UpdateFormData persists one step and adopts the merged draft. When the
// store fails the step is still applied in memory and the error returned.
func (s *Session) UpdateFormData(ctx context.Context, step draft.Step, data draft.StepData) error {
	merged, err := s.drafts.Save(ctx, s.owner, step, data)
	if err != nil {
		if data != nil && data.Step() == step {
			s.data.Apply(data)
		}
		return err
	}
	s.data = *merged
	s.stored = true
	return nil
}

func (s *Session) ResetForm(ctx context.Context) error {
	s.data = Defaults(s.now)
	s.stored = false
	return s.drafts.Clear(ctx, s.owner)
}

// complete is ResetForm after a successful final submission.
func (s *Session) complete(ctx context.Context) error {
	version := s.data.Version
	s.data = Defaults(s.now)
	s.stored = false
	return s.drafts.Submitted(ctx, s.owner, version)
}
