package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"psychicline-backend/internal/events"
	"psychicline-backend/internal/middleware"
	"psychicline-backend/internal/models"
	"psychicline-backend/internal/repository"
)

type publishedUpdate struct {
	to  uuid.UUID
	msg models.WSMessage
}

type stubNotifier struct {
	mu      sync.Mutex
	updates []publishedUpdate
}

func (n *stubNotifier) PublishUpdate(_ context.Context, id uuid.UUID, msg models.WSMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, publishedUpdate{to: id, msg: msg})
}

type queuedJob struct {
	jobType string
	payload interface{}
}

type stubQueue struct {
	jobs []queuedJob
	err  error
}

func (q *stubQueue) Enqueue(_ context.Context, jobType string, payload interface{}) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, queuedJob{jobType: jobType, payload: payload})
	return nil
}

type stubEvents struct {
	published []events.Event
}

func (e *stubEvents) Publish(_ context.Context, ev events.Event) error {
	e.published = append(e.published, ev)
	return nil
}

type stubLimiter struct {
	deny  bool
	calls int
}

func (l *stubLimiter) Allow(context.Context, string, middleware.Rule) bool {
	l.calls++
	return !l.deny
}

type stubWallets struct {
	wallets map[uuid.UUID]*models.Wallet
}

func (s *stubWallets) Get(_ context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if w, ok := s.wallets[userID]; ok {
		cp := *w
		return &cp, nil
	}
	return &models.Wallet{UserID: userID}, nil
}

type stubPsychics struct {
	psychics map[uuid.UUID]*models.Psychic
	earnings map[uuid.UUID]*models.EarningsSummary
}

func (s *stubPsychics) GetByID(_ context.Context, id uuid.UUID) (*models.Psychic, error) {
	if p, ok := s.psychics[id]; ok {
		return p, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *stubPsychics) Earnings(_ context.Context, id uuid.UUID) (*models.EarningsSummary, error) {
	if e, ok := s.earnings[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

type stubUsers struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

// memRequests keeps chat requests in memory and enforces the one open
// request per pair rule like the partial unique index does.
type memRequests struct {
	byID map[uuid.UUID]*models.ChatRequest
}

func newMemRequests() *memRequests {
	return &memRequests{byID: make(map[uuid.UUID]*models.ChatRequest)}
}

func (m *memRequests) Create(_ context.Context, cr *models.ChatRequest) error {
	for _, existing := range m.byID {
		if existing.UserID == cr.UserID && existing.PsychicID == cr.PsychicID && existing.Status.Outstanding() {
			return repository.ErrDuplicate
		}
	}
	cr.ID = uuid.New()
	cr.Status = models.RequestPending
	cr.RequestedAt = time.Now()
	cr.UpdatedAt = cr.RequestedAt
	cp := *cr
	m.byID[cr.ID] = &cp
	return nil
}

func (m *memRequests) GetByID(_ context.Context, id uuid.UUID) (*models.ChatRequest, error) {
	if cr, ok := m.byID[id]; ok {
		cp := *cr
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memRequests) GetOutstanding(_ context.Context, userID, psychicID uuid.UUID) (*models.ChatRequest, error) {
	for _, cr := range m.byID {
		if cr.UserID == userID && cr.PsychicID == psychicID && cr.Status.Outstanding() {
			cp := *cr
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memRequests) ListForPsychic(_ context.Context, psychicID uuid.UUID, status models.ChatRequestStatus) ([]models.InboxItem, error) {
	var out []models.InboxItem
	for _, cr := range m.byID {
		if cr.PsychicID != psychicID {
			continue
		}
		if (status == "" && cr.Status.Outstanding()) || cr.Status == status {
			out = append(out, models.InboxItem{ChatRequest: *cr})
		}
	}
	return out, nil
}

func (m *memRequests) Transition(_ context.Context, id uuid.UUID, from, to models.ChatRequestStatus) (*models.ChatRequest, error) {
	cr, ok := m.byID[id]
	if !ok || cr.Status != from {
		return nil, pgx.ErrNoRows
	}
	cr.Status = to
	cp := *cr
	return &cp, nil
}

func (m *memRequests) ExpireStale(_ context.Context, pendingBefore, acceptedBefore time.Time) ([]models.ChatRequest, error) {
	var out []models.ChatRequest
	for _, cr := range m.byID {
		if (cr.Status == models.RequestPending && cr.RequestedAt.Before(pendingBefore)) ||
			(cr.Status == models.RequestAccepted && cr.RequestedAt.Before(acceptedBefore)) {
			cr.Status = models.RequestExpired
			out = append(out, *cr)
		}
	}
	return out, nil
}

// memSessions runs the open and settle callbacks against in-memory state the
// way SessionRepo does inside its transaction.
type memSessions struct {
	requests *memRequests
	psychics *stubPsychics
	wallets  *stubWallets
	sessions map[uuid.UUID]*models.ChatSession
	debits   []models.Credits
}

func (m *memSessions) Open(_ context.Context, requestID uuid.UUID, decide repository.OpenFunc) (*models.ChatSession, error) {
	req, ok := m.requests.byID[requestID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	p, ok := m.psychics.psychics[req.PsychicID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	w := m.wallets.wallets[req.UserID]
	if w == nil {
		return nil, pgx.ErrNoRows
	}

	cp := *req
	wcp := *w
	s, err := decide(&cp, p.RatePerMin, &wcp)
	if err != nil {
		return nil, err
	}

	w.Reserved += s.Reserved
	s.ID = uuid.New()
	s.RequestID, s.UserID, s.PsychicID = req.ID, req.UserID, req.PsychicID
	s.Status = models.SessionActive
	s.StartedAt = time.Now()
	req.Status = models.RequestConsumed
	req.SessionID = &s.ID
	m.sessions[s.ID] = s
	out := *s
	return &out, nil
}

func (m *memSessions) Settle(_ context.Context, sessionID uuid.UUID, settle repository.SettleFunc) (*models.ChatSession, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	st, err := settle(&cp)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return &cp, nil
	}

	w := m.wallets.wallets[s.UserID]
	w.Balance -= st.Amount
	w.Reserved -= s.Reserved
	m.debits = append(m.debits, st.Amount)

	endedAt := st.EndedAt
	endedBy := st.EndedBy
	s.Status = models.SessionCompleted
	s.EndedAt = &endedAt
	s.EndedBy = &endedBy
	s.BilledMinutes = st.BilledMinutes
	s.Amount = st.Amount
	s.PsychicEarnings = st.PsychicEarnings
	s.PlatformEarnings = st.PlatformEarnings
	out := *s
	return &out, nil
}

func (m *memSessions) GetByID(_ context.Context, id uuid.UUID) (*models.ChatSession, error) {
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memSessions) GetDetail(ctx context.Context, id uuid.UUID) (*models.SessionDetail, error) {
	s, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.SessionDetail{ChatSession: *s}, nil
}

func (m *memSessions) ListDetails(context.Context, *uuid.UUID) ([]models.SessionDetail, error) {
	return nil, nil
}

func (m *memSessions) SummarizeByPsychic(context.Context) ([]models.PsychicChatSummary, error) {
	return nil, nil
}

func (m *memSessions) ListDue(_ context.Context, now time.Time) ([]models.ChatSession, error) {
	var due []models.ChatSession
	for _, s := range m.sessions {
		if s.Status == models.SessionActive && !s.Deadline().After(now) {
			due = append(due, *s)
		}
	}
	return due, nil
}
