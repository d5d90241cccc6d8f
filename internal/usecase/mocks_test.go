package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/squadup/squadup"
	"github.com/squadup/squadup/internal/domain"
)

// memIdentityRepo mimics the clamped, atomic ledger semantics of the real
// repository.
type memIdentityRepo struct {
	mu         sync.Mutex
	identities map[string]domain.Identity
	failApply  bool
}

func newMemIdentityRepo(identities ...domain.Identity) *memIdentityRepo {
	repo := &memIdentityRepo{identities: make(map[string]domain.Identity)}
	for _, id := range identities {
		repo.identities[id.ID] = id
	}
	return repo
}

func (m *memIdentityRepo) Get(ctx context.Context, id string) (domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[id]
	if !ok {
		return domain.Identity{}, domain.NotFoundError{Resource: "identity"}
	}
	return identity, nil
}

func (m *memIdentityRepo) Upsert(ctx context.Context, identity domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.identities[identity.ID]; ok {
		existing.Username = identity.Username
		existing.Role = identity.Role
		m.identities[identity.ID] = existing
		return nil
	}
	m.identities[identity.ID] = identity
	return nil
}

func (m *memIdentityRepo) ApplyReputation(ctx context.Context, id string, delta int, toxic bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failApply {
		return 0, errors.New("storage unavailable")
	}
	identity, ok := m.identities[id]
	if !ok {
		return 0, domain.NotFoundError{Resource: "identity"}
	}
	score := identity.Reputation + delta
	if score < domain.ReputationMin {
		score = domain.ReputationMin
	}
	if score > domain.ReputationMax {
		score = domain.ReputationMax
	}
	identity.Reputation = score
	if toxic {
		identity.ToxicityFlags++
	}
	m.identities[id] = identity
	return score, nil
}

func (m *memIdentityRepo) NudgeTrust(ctx context.Context, id string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[id]
	if !ok {
		return domain.NotFoundError{Resource: "identity"}
	}
	identity.TrustScore += amount
	if identity.TrustScore > domain.TrustCeiling {
		identity.TrustScore = domain.TrustCeiling
	}
	m.identities[id] = identity
	return nil
}

func (m *memIdentityRepo) IncrementEndorsement(ctx context.Context, id string, category domain.EndorsementCategory) (domain.EndorsementCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[id]
	if !ok {
		return domain.EndorsementCounts{}, domain.NotFoundError{Resource: "identity"}
	}
	switch category {
	case domain.EndorseTeamPlayer:
		identity.Endorsements.TeamPlayer++
	case domain.EndorsePositive:
		identity.Endorsements.Positive++
	case domain.EndorseSkilled:
		identity.Endorsements.Skilled++
	case domain.EndorseShotcaller:
		identity.Endorsements.Shotcaller++
	}
	m.identities[id] = identity
	return identity.Endorsements, nil
}

func (m *memIdentityRepo) UpdateVector(ctx context.Context, id string, v domain.BehavioralVector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[id]
	if !ok {
		return domain.NotFoundError{Resource: "identity"}
	}
	identity.Vector = &v
	m.identities[id] = identity
	return nil
}

func (m *memIdentityRepo) Flagged(ctx context.Context) ([]domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var flagged []domain.Identity
	for _, identity := range m.identities {
		if identity.ToxicityFlags > 0 && !identity.Role.Staff() {
			flagged = append(flagged, identity)
		}
	}
	return flagged, nil
}

// memSessionRepo mirrors the single-critical-section admission semantics.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	members  map[string]map[string]bool
}

func newMemSessionRepo(sessions ...domain.Session) *memSessionRepo {
	repo := &memSessionRepo{
		sessions: make(map[string]domain.Session),
		members:  make(map[string]map[string]bool),
	}
	for _, s := range sessions {
		repo.sessions[s.ID] = s
		repo.members[s.ID] = map[string]bool{s.HostID: true}
	}
	return repo
}

func (m *memSessionRepo) Create(ctx context.Context, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	m.members[session.ID] = map[string]bool{session.HostID: true}
	return nil
}

func (m *memSessionRepo) Get(ctx context.Context, id string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, domain.NotFoundError{Resource: "session"}
	}
	return session, nil
}

func (m *memSessionRepo) ListOpen(ctx context.Context, gameID, region string) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var open []domain.Session
	for _, s := range m.sessions {
		if s.Status != domain.SessionOpen {
			continue
		}
		if gameID != "" && s.GameID != gameID {
			continue
		}
		if region != "" && s.Region != region {
			continue
		}
		open = append(open, s)
	}
	return open, nil
}

func (m *memSessionRepo) Join(ctx context.Context, sessionID, identityID string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.NotFoundError{Resource: "session"}
	}
	if session.Status != domain.SessionOpen {
		if session.Status == domain.SessionFull {
			return domain.Session{}, domain.ErrFull
		}
		return domain.Session{}, domain.ErrNotOpen
	}
	if m.members[sessionID][identityID] {
		return domain.Session{}, domain.ErrAlreadyMember
	}
	m.members[sessionID][identityID] = true
	session.Occupancy++
	if session.Occupancy >= session.Capacity {
		session.Status = domain.SessionFull
	}
	m.sessions[sessionID] = session
	return session, nil
}

func (m *memSessionRepo) Leave(ctx context.Context, sessionID, identityID string) (domain.LeaveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return domain.LeaveResult{}, domain.NotFoundError{Resource: "session"}
	}
	if !m.members[sessionID][identityID] {
		return domain.LeaveResult{}, domain.ErrNotMember
	}
	delete(m.members[sessionID], identityID)
	session.Occupancy--

	closed := false
	reason := ""
	if identityID == session.HostID {
		closed = true
		reason = "host_left"
	} else if session.Occupancy <= 0 {
		closed = true
		reason = "empty"
	}
	if closed {
		session.Status = domain.SessionClosed
		session.Occupancy = 0
		m.members[sessionID] = map[string]bool{}
	} else if session.Status == domain.SessionFull {
		session.Status = domain.SessionOpen
	}
	m.sessions[sessionID] = session
	return domain.LeaveResult{Session: session, Closed: closed, Reason: reason}, nil
}

func (m *memSessionRepo) Close(ctx context.Context, sessionID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.NotFoundError{Resource: "session"}
	}
	if session.Status == domain.SessionClosed {
		return nil, domain.ErrNotOpen
	}
	members := m.memberIDs(sessionID)
	session.Status = domain.SessionClosed
	session.Occupancy = 0
	m.sessions[sessionID] = session
	m.members[sessionID] = map[string]bool{}
	return members, nil
}

func (m *memSessionRepo) DeleteCascade(ctx context.Context, sessionID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, domain.NotFoundError{Resource: "session"}
	}
	members := m.memberIDs(sessionID)
	delete(m.sessions, sessionID)
	delete(m.members, sessionID)
	return members, nil
}

func (m *memSessionRepo) Members(ctx context.Context, sessionID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memberIDs(sessionID), nil
}

func (m *memSessionRepo) IsMember(ctx context.Context, sessionID, identityID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[sessionID][identityID], nil
}

func (m *memSessionRepo) memberIDs(sessionID string) []string {
	ids := make([]string, 0, len(m.members[sessionID]))
	for id := range m.members[sessionID] {
		ids = append(ids, id)
	}
	return ids
}

type memTrustRepo struct {
	mu    sync.Mutex
	edges map[string]domain.TrustEdge
}

func newMemTrustRepo() *memTrustRepo {
	return &memTrustRepo{edges: make(map[string]domain.TrustEdge)}
}

func (m *memTrustRepo) Upsert(ctx context.Context, sourceID, targetID string) (domain.TrustEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sourceID + "/" + targetID
	edge, ok := m.edges[key]
	if !ok {
		edge = domain.TrustEdge{
			SourceID:   sourceID,
			TargetID:   targetID,
			Weight:     domain.EdgeInitialWeight,
			Provenance: domain.ProvenanceEndorsement,
			CreatedAt:  time.Now().UTC(),
		}
	} else if edge.Weight < domain.EdgeReinforcedWeight {
		edge.Weight = domain.EdgeReinforcedWeight
	}
	edge.UpdatedAt = time.Now().UTC()
	m.edges[key] = edge
	return edge, nil
}

func (m *memTrustRepo) Incoming(ctx context.Context, targetID string, limit int) ([]domain.TrustEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var incoming []domain.TrustEdge
	for _, edge := range m.edges {
		if edge.TargetID == targetID {
			incoming = append(incoming, edge)
		}
	}
	return incoming, nil
}

func (m *memTrustRepo) Outgoing(ctx context.Context, sourceID string, limit int) ([]domain.TrustEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var outgoing []domain.TrustEdge
	for _, edge := range m.edges {
		if edge.SourceID == sourceID {
			outgoing = append(outgoing, edge)
		}
	}
	return outgoing, nil
}

func (m *memTrustRepo) Counts(ctx context.Context, identityID string) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var incoming, outgoing int64
	for _, edge := range m.edges {
		if edge.TargetID == identityID {
			incoming++
		}
		if edge.SourceID == identityID {
			outgoing++
		}
	}
	return incoming, outgoing, nil
}

type memActionRepo struct {
	mu      sync.Mutex
	actions []domain.DisciplinaryAction
}

func (m *memActionRepo) Issue(ctx context.Context, action domain.DisciplinaryAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.actions {
		if m.actions[i].IdentityID == action.IdentityID && m.actions[i].Kind == action.Kind {
			m.actions[i].Active = false
		}
	}
	m.actions = append(m.actions, action)
	return nil
}

func (m *memActionRepo) Active(ctx context.Context, identityID string, kind domain.ActionKind) (*domain.DisciplinaryAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.actions {
		if m.actions[i].IdentityID == identityID && m.actions[i].Kind == kind && m.actions[i].Active {
			action := m.actions[i]
			return &action, nil
		}
	}
	return nil, nil
}

func (m *memActionRepo) ActiveFor(ctx context.Context, identityID string) ([]domain.DisciplinaryAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var active []domain.DisciplinaryAction
	for _, action := range m.actions {
		if action.IdentityID == identityID && action.Active {
			active = append(active, action)
		}
	}
	return active, nil
}

func (m *memActionRepo) Deactivate(ctx context.Context, actionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.actions {
		if m.actions[i].ID == actionID {
			m.actions[i].Active = false
		}
	}
	return nil
}

type memChatRepo struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
}

func (m *memChatRepo) Append(ctx context.Context, message domain.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

func (m *memChatRepo) Recent(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var recent []domain.ChatMessage
	for _, message := range m.messages {
		if message.SessionID == sessionID {
			recent = append(recent, message)
		}
	}
	if len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}
	return recent, nil
}

func (m *memChatRepo) Context(ctx context.Context, messageID string) ([]domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, message := range m.messages {
		if message.ID == messageID {
			start := i - 5
			if start < 0 {
				start = 0
			}
			return append([]domain.ChatMessage{}, m.messages[start:i+1]...), nil
		}
	}
	return nil, domain.NotFoundError{Resource: "message"}
}

type memNotificationRepo struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (m *memNotificationRepo) Append(ctx context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *memNotificationRepo) ListRecent(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var recent []domain.Notification
	for _, n := range m.notifications {
		if n.RecipientID == recipientID {
			recent = append(recent, n)
		}
	}
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

func (m *memNotificationRepo) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *memNotificationRepo) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == notificationID && m.notifications[i].RecipientID == recipientID {
			m.notifications[i].Read = true
		}
	}
	return nil
}

func (m *memNotificationRepo) MarkAllRead(ctx context.Context, recipientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].RecipientID == recipientID {
			m.notifications[i].Read = true
		}
	}
	return nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (m *memAuditRepo) Append(ctx context.Context, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAuditRepo) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := append([]domain.AuditEntry{}, m.entries...)
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

type mockStatsRepo struct {
	stats domain.Stats
	calls int
}

func (m *mockStatsRepo) Snapshot(ctx context.Context) (domain.Stats, error) {
	m.calls++
	return m.stats, nil
}

// capturePublisher records published events in order.
type capturePublisher struct {
	mu     sync.Mutex
	events []squadup.Event
}

func (p *capturePublisher) Publish(ctx context.Context, channel string, event squadup.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) byKind(kind string) []squadup.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var matched []squadup.Event
	for _, event := range p.events {
		if event.Kind == kind {
			matched = append(matched, event)
		}
	}
	return matched
}
