package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/events"
	"github.com/spec-kit/event-service/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, role *domain.Role, _, _ int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		if role != nil && user.Role != *role {
			continue
		}
		result = append(result, *user)
	}
	return result, nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Active = active
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) StampVerificationRequest(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	user.VerificationAskedAt = &now
	return nil
}

func (r *fakeUserRepo) CountByRole(_ context.Context) (map[domain.Role]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.Role]int64)
	for _, user := range r.users {
		counts[user.Role]++
	}
	return counts, nil
}

// setVerification mirrors what the decision transaction does to the user row.
func (r *fakeUserRepo) setVerification(id string, status domain.VerificationStatus, adminID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.VerificationStatus = status
		now := time.Now()
		user.VerifiedAt = &now
		user.VerifiedByAdminID = &adminID
	}
}

// fakeVerificationRepo is an in-memory VerificationRepository. Decide applies
// the same first-decision-wins rule as the conditional update in Postgres.
type fakeVerificationRepo struct {
	mu            sync.Mutex
	requests      map[string]*domain.VerificationRequest
	docs          map[string][]domain.VerificationDocument
	users         *fakeUserRepo
	failDocuments bool
}

func newFakeVerificationRepo(users *fakeUserRepo) *fakeVerificationRepo {
	return &fakeVerificationRepo{
		requests: make(map[string]*domain.VerificationRequest),
		docs:     make(map[string][]domain.VerificationDocument),
		users:    users,
	}
}

func (r *fakeVerificationRepo) CreateRequest(_ context.Context, req *domain.VerificationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.requests {
		if existing.UserID == req.UserID && existing.Type == req.Type && existing.Status == domain.RequestStatusPending {
			return repository.ErrDuplicatePending
		}
	}
	if r.failDocuments {
		return errors.New("insert document: connection reset")
	}
	req.ID = uuid.NewString()
	req.SubmittedAt = time.Now()
	for i := range req.Documents {
		req.Documents[i].ID = uuid.NewString()
		req.Documents[i].RequestID = req.ID
		req.Documents[i].CreatedAt = time.Now()
	}
	r.docs[req.ID] = append([]domain.VerificationDocument(nil), req.Documents...)
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *fakeVerificationRepo) GetRequestByID(_ context.Context, id string) (*domain.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *req
	return &clone, nil
}

func (r *fakeVerificationRepo) HasPendingRequest(_ context.Context, userID string, reqType domain.VerificationRequestType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.UserID == userID && req.Type == reqType && req.Status == domain.RequestStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVerificationRepo) ListRequests(_ context.Context, filter repository.VerificationRequestFilter) ([]domain.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.VerificationRequest
	for _, req := range r.requests {
		if filter.UserID != nil && req.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && req.Type != *filter.Type {
			continue
		}
		result = append(result, *req)
	}
	return result, nil
}

func (r *fakeVerificationRepo) Decide(_ context.Context, input repository.DecisionInput) (*domain.VerificationRequest, error) {
	r.mu.Lock()
	req, ok := r.requests[input.RequestID]
	if !ok {
		r.mu.Unlock()
		return nil, pgx.ErrNoRows
	}
	if req.Status != domain.RequestStatusPending {
		r.mu.Unlock()
		return nil, repository.ErrAlreadyDecided
	}
	req.Status = input.Decision.RequestStatus()
	req.AdminID = &input.AdminID
	now := time.Now()
	req.DecidedAt = &now
	clone := *req
	r.mu.Unlock()

	if r.users != nil {
		r.users.setVerification(req.UserID, input.Decision.UserStatus(), input.AdminID)
	}
	return &clone, nil
}

func (r *fakeVerificationRepo) ListDocuments(_ context.Context, requestID string) ([]domain.VerificationDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.VerificationDocument{}, r.docs[requestID]...), nil
}

func (r *fakeVerificationRepo) CountPending(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, req := range r.requests {
		if req.Status == domain.RequestStatusPending {
			count++
		}
	}
	return count, nil
}

// fakeEventRepo is an in-memory EventRepository.
type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*domain.Event
}

func newFakeEventRepo(seed ...*domain.Event) *fakeEventRepo {
	repo := &fakeEventRepo{events: make(map[string]*domain.Event)}
	for _, e := range seed {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		repo.events[e.ID] = e
	}
	return repo
}

func (r *fakeEventRepo) Create(_ context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	clone := *event
	r.events[event.ID] = &clone
	return nil
}

func (r *fakeEventRepo) Update(_ context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *event
	r.events[event.ID] = &clone
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *event
	return &clone, nil
}

func (r *fakeEventRepo) ListWithFilter(_ context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Event
	for _, event := range r.events {
		if filter.OrganizerID != nil && event.OrganizerID != *filter.OrganizerID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, event.Status) {
			continue
		}
		result = append(result, *event)
	}
	return result, nil
}

func (r *fakeEventRepo) CountByStatus(_ context.Context) (map[domain.EventStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.EventStatus]int64)
	for _, event := range r.events {
		counts[event.Status]++
	}
	return counts, nil
}

func containsStatus(statuses []domain.EventStatus, status domain.EventStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// fakeRegistrationRepo is an in-memory RegistrationRepository.
type fakeRegistrationRepo struct {
	mu            sync.Mutex
	registrations map[string]*domain.Registration
}

func newFakeRegistrationRepo(seed ...*domain.Registration) *fakeRegistrationRepo {
	repo := &fakeRegistrationRepo{registrations: make(map[string]*domain.Registration)}
	for _, reg := range seed {
		if reg.ID == "" {
			reg.ID = uuid.NewString()
		}
		repo.registrations[reg.ID] = reg
	}
	return repo
}

func (r *fakeRegistrationRepo) Create(_ context.Context, reg *domain.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.registrations {
		if existing.EventID == reg.EventID && existing.ParticipantID == reg.ParticipantID {
			return repository.ErrDuplicateRegistration
		}
	}
	reg.ID = uuid.NewString()
	reg.RegisteredAt = time.Now()
	clone := *reg
	r.registrations[reg.ID] = &clone
	return nil
}

func (r *fakeRegistrationRepo) GetByID(_ context.Context, id string) (*domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registrations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *reg
	return &clone, nil
}

func (r *fakeRegistrationRepo) UpdateStatus(_ context.Context, id string, status domain.RegistrationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registrations[id]
	if !ok {
		return pgx.ErrNoRows
	}
	reg.Status = status
	return nil
}

func (r *fakeRegistrationRepo) ListByEvent(_ context.Context, eventID string) ([]domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Registration
	for _, reg := range r.registrations {
		if reg.EventID == eventID {
			result = append(result, *reg)
		}
	}
	return result, nil
}

func (r *fakeRegistrationRepo) ListByParticipant(_ context.Context, participantID string, _, _ int) ([]domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Registration
	for _, reg := range r.registrations {
		if reg.ParticipantID == participantID {
			result = append(result, *reg)
		}
	}
	return result, nil
}

func (r *fakeRegistrationRepo) CountActiveByEvent(_ context.Context, eventID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, reg := range r.registrations {
		if reg.EventID == eventID && reg.Status != domain.RegistrationCancelled {
			count++
		}
	}
	return count, nil
}

// fakeAuditRepo records audit entries in memory.
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) ListByTarget(_ context.Context, targetType, targetID string, _, _ int) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.AuditEntry
	for _, entry := range r.entries {
		if entry.TargetType == targetType && entry.TargetID == targetID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]domain.AuditAction, 0, len(r.entries))
	for _, entry := range r.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

// fakeStore keeps uploaded files in memory and counts removals.
type fakeStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	failAll bool
	removed []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: make(map[string][]byte)}
}

func (s *fakeStore) Save(_, originalName string, src io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return "", errors.New("disk full")
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s", uuid.NewString(), originalName)
	s.files[name] = data
	return name, nil
}

func (s *fakeStore) Open(_, storedName string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[storedName]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStore) Remove(_, storedName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, storedName)
	s.removed = append(s.removed, storedName)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	types := make([]events.EventType, 0, len(d.published))
	for _, event := range d.published {
		types = append(types, event.Type)
	}
	return types
}
