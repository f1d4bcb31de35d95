package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"github.com/google/uuid"

	"mcmarket/draft"
	"mcmarket/metrics"
	"mcmarket/wizard"
)

// ErrSnapshotMissing signals a success return with an empty draft slot. The
// attempt is over; the seller must redo the listing from step 1.
var ErrSnapshotMissing = errors.New("payment: saved snapshot missing")

// ErrStaleAttempt signals a return token that does not match the attempt
// currently held in the draft slot (another tab redid the excursion). No side
// effect is applied for the stale tab.
var ErrStaleAttempt = errors.New("payment: return signal belongs to a superseded attempt")

// Committer turns a finalized snapshot into exactly one persisted listing.
// Implemented by the listing coordinator; re-commits for an authority already
// committed must return the existing listing id rather than create another.
type Committer interface {
	Commit(ctx context.Context, snap wizard.FormSnapshot) (string, error)
}

// OutcomeKind tags the reconciliation result of a return signal.
type OutcomeKind int

const (
	// OutcomeNone is a load without a payment marker. Nothing happened.
	OutcomeNone OutcomeKind = iota
	// OutcomeCommitted means exactly one listing now exists for the attempt.
	OutcomeCommitted
	// OutcomeCancelled means the seller backed out; the draft is preserved
	// and the session sits on the payment step again.
	OutcomeCancelled
	// OutcomeFailed is terminal for the attempt: snapshot missing or the
	// persistence API rejected the finalized data after payment.
	OutcomeFailed
	// OutcomeDuplicate means the latch or durable marker suppressed a
	// repeated success evaluation.
	OutcomeDuplicate
)

// Outcome is the fully reconciled result of evaluating a return signal,
// including the recovery actions the caller should offer on failure.
type Outcome struct {
	Kind      OutcomeKind
	ListingID string
	Reason    string
	Actions   []string
}

// Recovery actions surfaced with a failed outcome. A failed commit after
// payment must never strand the seller on a spinner.
const (
	ActionStartOver    = "start_over"
	ActionViewListings = "view_listings"
)

// Manager owns the payment excursion: the handoff to the hosted provider and
// the three-way reconciliation of the return signal.
type Manager struct {
	bridge    draft.Store
	provider  SessionProvider
	committer Committer
	tokens    *TokenSigner
	returnURL string
	log       *log.Logger
	metrics   *metrics.Metrics
	idGen     func() string
}

// NewManager wires the excursion manager. returnBase is the absolute URL of
// the wizard return endpoint; session ids are appended to it.
func NewManager(bridge draft.Store, provider SessionProvider, committer Committer, tokens *TokenSigner, returnBase string, logger *log.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		bridge:    bridge,
		provider:  provider,
		committer: committer,
		tokens:    tokens,
		returnURL: returnBase,
		log:       logger,
		metrics:   m,
		idGen:     func() string { return uuid.NewString() },
	}
}

// WithIDGenerator overrides attempt id generation, for tests.
func (m *Manager) WithIDGenerator(gen func() string) *Manager {
	m.idGen = gen
	return m
}

// Begin saves the draft, requests a checkout session from the provider, and
// returns the URL the seller's browser must navigate to. On provider failure
// the draft is kept so the seller can retry from the payment step.
func (m *Manager) Begin(ctx context.Context, s *wizard.Session) (string, error) {
	snap := s.Form.Get()
	if !snap.HasIdentifier() {
		return "", wizard.ErrIdentifierRequired
	}

	attemptID := m.idGen()
	d := draft.Draft{
		Snapshot:  snap,
		Touched:   s.Form.Touched(),
		AttemptID: attemptID,
	}
	if err := m.bridge.Save(ctx, s.ID, d); err != nil {
		return "", fmt.Errorf("payment: save draft before excursion: %w", err)
	}

	token, err := m.tokens.Sign(s.ID, attemptID, snap.AuthorityID())
	if err != nil {
		return "", err
	}

	session, err := m.provider.CreateSession(ctx, CreateSessionParams{
		SubjectID:  snap.AuthorityID(),
		SuccessURL: m.callbackURL(s.ID, "success", snap.AuthorityID(), token),
		CancelURL:  m.callbackURL(s.ID, "cancelled", "", token),
	})
	if err != nil {
		// Draft intentionally kept: the seller's data must survive a
		// provider outage so they can retry.
		s.SetStatus(wizard.StatusFailed, err.Error())
		return "", err
	}

	s.SetStatus(wizard.StatusAwaitingRedirect, "")
	if m.metrics != nil {
		m.metrics.ExcursionsStarted.Inc()
	}
	m.log.Printf("excursion started session=%s attempt=%s authority=%s", s.ID, attemptID, snap.AuthorityID())
	return session.URL, nil
}

// Resume reconciles a return signal against the session. It is safe to call
// repeatedly with the same signal: the latch and the coordinator's durable
// marker guarantee at most one listing-creation call per success.
func (m *Manager) Resume(ctx context.Context, s *wizard.Session, sig Signal) (Outcome, error) {
	switch sig.Kind {
	case SignalNone:
		return Outcome{Kind: OutcomeNone}, nil
	case SignalCancelled:
		return m.resumeCancelled(ctx, s, sig)
	case SignalSuccess:
		return m.resumeSuccess(ctx, s, sig)
	default:
		return Outcome{Kind: OutcomeNone}, nil
	}
}

func (m *Manager) resumeCancelled(ctx context.Context, s *wizard.Session, sig Signal) (Outcome, error) {
	if _, err := m.tokens.Verify(sig.Token); err != nil {
		return Outcome{}, err
	}

	// Restore whatever is still in the slot; land on the payment step even
	// when the load misses, so the seller can retry without re-entering
	// earlier steps. The draft is deliberately not cleared.
	d, err := m.bridge.Load(ctx, s.ID)
	switch {
	case err == nil:
		s.Form.Replace(d.Snapshot, d.Touched)
	case errors.Is(err, draft.ErrNoDraft):
		// nothing to restore
	default:
		return Outcome{}, err
	}

	s.Nav.Force(wizard.StepPayment)
	s.SetStatus(wizard.StatusIdle, "")
	m.log.Printf("excursion cancelled session=%s", s.ID)
	return Outcome{Kind: OutcomeCancelled}, nil
}

func (m *Manager) resumeSuccess(ctx context.Context, s *wizard.Session, sig Signal) (Outcome, error) {
	claims, err := m.tokens.Verify(sig.Token)
	if err != nil {
		return Outcome{}, err
	}
	if claims.SessionID != s.ID {
		return Outcome{}, ErrBadToken
	}

	if s.Latched() {
		if m.metrics != nil {
			m.metrics.DuplicatesSuppressed.Inc()
		}
		return Outcome{Kind: OutcomeDuplicate, ListingID: s.ListingID()}, nil
	}

	d, err := m.bridge.Load(ctx, s.ID)
	if errors.Is(err, draft.ErrNoDraft) {
		// Data loss is explicit and reported, never silently retried
		// with partial data.
		s.SetStatus(wizard.StatusFailed, "snapshot missing")
		s.Nav.Force(wizard.StepAuthorityInfo)
		m.log.Printf("excursion resume failed session=%s: draft slot empty", s.ID)
		return Outcome{
			Kind:    OutcomeFailed,
			Reason:  "snapshot missing",
			Actions: []string{ActionStartOver},
		}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	if d.AttemptID != claims.AttemptID {
		return Outcome{}, ErrStaleAttempt
	}

	s.Form.Replace(d.Snapshot, d.Touched)

	// The latch must be won before the commit call is issued and is never
	// released for this session, so a concurrent evaluation of the same
	// success signal cannot commit twice.
	if !s.Latch() {
		if m.metrics != nil {
			m.metrics.DuplicatesSuppressed.Inc()
		}
		return Outcome{Kind: OutcomeDuplicate, ListingID: s.ListingID()}, nil
	}

	if m.metrics != nil {
		m.metrics.CommitsAttempted.Inc()
	}
	listingID, err := m.committer.Commit(ctx, d.Snapshot)

	// The slot is cleared on both commit outcomes: success because the
	// attempt is finished, failure to keep a reload from resubmitting
	// possibly-invalid data without a fresh idempotency check.
	if clearErr := m.bridge.Clear(ctx, s.ID); clearErr != nil {
		m.log.Printf("clear draft session=%s: %v", s.ID, clearErr)
	}

	if err != nil {
		s.SetStatus(wizard.StatusFailed, err.Error())
		s.Nav.Force(wizard.StepConfirmation)
		if m.metrics != nil {
			m.metrics.CommitsFailed.Inc()
		}
		m.log.Printf("listing commit failed session=%s authority=%s: %v", s.ID, claims.AuthorityID, err)
		return Outcome{
			Kind:    OutcomeFailed,
			Reason:  err.Error(),
			Actions: []string{ActionStartOver, ActionViewListings},
		}, nil
	}

	s.SetListingID(listingID)
	s.SetStatus(wizard.StatusCommitted, "")
	s.Nav.Force(wizard.StepConfirmation)
	if m.metrics != nil {
		m.metrics.CommitsSucceeded.Inc()
	}
	m.log.Printf("listing committed session=%s listing=%s", s.ID, listingID)
	return Outcome{Kind: OutcomeCommitted, ListingID: listingID}, nil
}

func (m *Manager) callbackURL(sessionID, marker, authorityID, token string) string {
	q := url.Values{}
	q.Set("payment", marker)
	if authorityID != "" {
		q.Set("mc", authorityID)
	}
	q.Set("token", token)
	return fmt.Sprintf("%s/%s/return?%s", m.returnURL, sessionID, q.Encode())
}
