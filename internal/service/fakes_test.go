package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"hiringhall-backend/internal/domain"
	"hiringhall-backend/internal/repository"
)

// In-memory fakes. Each embeds the repository interface so only the methods a
// test exercises need implementations; calling anything else panics loudly.

type fakeBookRepo struct {
	repository.BookRepository
	books map[int32]*domain.ReferralBook
}

func newFakeBookRepo(books ...*domain.ReferralBook) *fakeBookRepo {
	r := &fakeBookRepo{books: map[int32]*domain.ReferralBook{}}
	for _, b := range books {
		r.books[b.ID] = b
	}
	return r
}

func (r *fakeBookRepo) GetByID(_ context.Context, id int32) (*domain.ReferralBook, error) {
	b, ok := r.books[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookRepo) ListForClassification(_ context.Context, classification, region string) ([]domain.ReferralBook, error) {
	var out []domain.ReferralBook
	for _, b := range r.books {
		if b.Classification == classification && b.Region == region && b.IsActive {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookNumber < out[j].BookNumber })
	return out, nil
}

type fakeRegRepo struct {
	repository.RegistrationRepository
	mu     sync.Mutex
	regs   map[int32]*domain.BookRegistration
	nextID int32
}

func newFakeRegRepo() *fakeRegRepo {
	return &fakeRegRepo{regs: map[int32]*domain.BookRegistration{}, nextID: 1}
}

func (r *fakeRegRepo) Create(_ context.Context, reg *domain.BookRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var max domain.APN
	for _, existing := range r.regs {
		if existing.BookID == reg.BookID && max.Less(existing.RegistrationNumber) {
			max = existing.RegistrationNumber
		}
	}
	reg.RegistrationNumber = domain.NextAPN(max, domain.DateSerial(time.Now()))
	reg.ID = r.nextID
	r.nextID++
	cp := *reg
	r.regs[reg.ID] = &cp
	return nil
}

func (r *fakeRegRepo) GetByID(_ context.Context, id int32) (*domain.BookRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *reg
	return &cp, nil
}

func (r *fakeRegRepo) GetActive(_ context.Context, memberID, bookID int32) (*domain.BookRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.regs {
		if reg.MemberID == memberID && reg.BookID == bookID && !reg.Terminal() {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeRegRepo) Update(_ context.Context, reg *domain.BookRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regs[reg.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *reg
	r.regs[reg.ID] = &cp
	return nil
}

func (r *fakeRegRepo) ListByBook(_ context.Context, bookID int32, includeExempt bool) ([]domain.BookRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.BookRegistration
	for _, reg := range r.regs {
		if reg.BookID != bookID || reg.Status != domain.RegistrationStatusRegistered {
			continue
		}
		if reg.IsExempt && !includeExempt {
			continue
		}
		out = append(out, *reg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RegistrationNumber.Less(out[j].RegistrationNumber)
	})
	return out, nil
}

type fakeRequestRepo struct {
	repository.RequestRepository
	mu     sync.Mutex
	reqs   map[int32]*domain.LaborRequest
	nextID int32
}

func newFakeRequestRepo(reqs ...*domain.LaborRequest) *fakeRequestRepo {
	r := &fakeRequestRepo{reqs: map[int32]*domain.LaborRequest{}, nextID: 1}
	for _, req := range reqs {
		if req.ID >= r.nextID {
			r.nextID = req.ID + 1
		}
		cp := *req
		r.reqs[req.ID] = &cp
	}
	return r
}

func (r *fakeRequestRepo) Create(_ context.Context, req *domain.LaborRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.ID = r.nextID
	r.nextID++
	cp := *req
	r.reqs[req.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id int32) (*domain.LaborRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *req
	return &cp, nil
}

func (r *fakeRequestRepo) Update(_ context.Context, req *domain.LaborRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reqs[req.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *req
	r.reqs[req.ID] = &cp
	return nil
}

type fakeDispatchRepo struct {
	repository.DispatchRepository
	mu          sync.Mutex
	dispatches  map[int32]*domain.Dispatch
	byNameCount int32
}

func newFakeDispatchRepo(dispatches ...*domain.Dispatch) *fakeDispatchRepo {
	r := &fakeDispatchRepo{dispatches: map[int32]*domain.Dispatch{}}
	for _, d := range dispatches {
		cp := *d
		r.dispatches[d.ID] = &cp
	}
	return r
}

func (r *fakeDispatchRepo) GetByID(_ context.Context, id int32) (*domain.Dispatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dispatches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDispatchRepo) Update(_ context.Context, d *domain.Dispatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dispatches[d.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *d
	r.dispatches[d.ID] = &cp
	return nil
}

func (r *fakeDispatchRepo) CountByNameSince(_ context.Context, _ int32, _ string, _ time.Time) (int32, error) {
	return r.byNameCount, nil
}

type fakeBidRepo struct {
	repository.BidRepository
	mu         sync.Mutex
	bids       map[int32]*domain.JobBid
	nextID     int32
	rejections int32
}

func newFakeBidRepo(bids ...*domain.JobBid) *fakeBidRepo {
	r := &fakeBidRepo{bids: map[int32]*domain.JobBid{}, nextID: 1}
	for _, b := range bids {
		if b.ID >= r.nextID {
			r.nextID = b.ID + 1
		}
		cp := *b
		r.bids[b.ID] = &cp
	}
	return r
}

func (r *fakeBidRepo) Create(_ context.Context, bid *domain.JobBid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bid.ID = r.nextID
	r.nextID++
	bid.Status = domain.BidStatusPending
	cp := *bid
	r.bids[bid.ID] = &cp
	return nil
}

func (r *fakeBidRepo) GetByID(_ context.Context, id int32) (*domain.JobBid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bids[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBidRepo) Update(_ context.Context, bid *domain.JobBid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bids[bid.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *bid
	r.bids[bid.ID] = &cp
	return nil
}

func (r *fakeBidRepo) GetActiveBid(_ context.Context, memberID, requestID int32) (*domain.JobBid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bids {
		if b.MemberID == memberID && b.RequestID == requestID && b.Status != domain.BidStatusWithdrawn {
			cp := *b
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeBidRepo) ListPendingByRequest(_ context.Context, requestID int32) ([]domain.JobBid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.JobBid
	for _, b := range r.bids {
		if b.RequestID == requestID && b.Status == domain.BidStatusPending {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QueuePositionAtBid.Less(out[j].QueuePositionAtBid)
	})
	return out, nil
}

func (r *fakeBidRepo) CountRejectionsSince(_ context.Context, memberID int32, since time.Time) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejections != 0 {
		return r.rejections, nil
	}
	var n int32
	for _, b := range r.bids {
		if b.MemberID == memberID && b.Status == domain.BidStatusRejected && b.RejectedByMember &&
			b.RejectionDate != nil && b.RejectionDate.After(since) {
			n++
		}
	}
	return n, nil
}

type fakeBlackoutRepo struct {
	repository.BlackoutRepository
	active bool
}

func (r *fakeBlackoutRepo) HasActive(_ context.Context, _ int32, _ string, _ time.Time) (bool, error) {
	return r.active, nil
}

type fakeSuspensionRepo struct {
	repository.SuspensionRepository
	mu      sync.Mutex
	active  *domain.BiddingSuspension
	created []*domain.BiddingSuspension
}

func (r *fakeSuspensionRepo) GetActive(_ context.Context, _ int32, _ time.Time) (*domain.BiddingSuspension, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return nil, sql.ErrNoRows
	}
	cp := *r.active
	return &cp, nil
}

func (r *fakeSuspensionRepo) Create(_ context.Context, s *domain.BiddingSuspension) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = int32(len(r.created) + 1)
	cp := *s
	r.created = append(r.created, &cp)
	r.active = &cp
	return nil
}

type fakeActivityRepo struct {
	repository.ActivityRepository
	mu      sync.Mutex
	records []domain.RegistrationActivity
}

func (r *fakeActivityRepo) Create(_ context.Context, a *domain.RegistrationActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *a)
	return nil
}

func (r *fakeActivityRepo) actions() []domain.ActivityAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ActivityAction, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Action
	}
	return out
}

// fakeClaims scripts the claim repository with function fields.
type fakeClaims struct {
	repository.ClaimRepository
	claimNext         func(requestID int32, method domain.DispatchMethod) (*domain.Dispatch, error)
	claimRegistration func(requestID, registrationID int32) (*domain.Dispatch, error)
	claimByName       func(requestID, memberID int32) (*domain.Dispatch, error)
	terminate         func(dispatchID int32, outcome domain.TerminationOutcome, daysWorked int32, hoursWorked float64) (*domain.Dispatch, error)
}

func (r *fakeClaims) ClaimNext(_ context.Context, requestID int32, method domain.DispatchMethod) (*domain.Dispatch, error) {
	return r.claimNext(requestID, method)
}

func (r *fakeClaims) ClaimRegistration(_ context.Context, requestID, registrationID int32) (*domain.Dispatch, error) {
	return r.claimRegistration(requestID, registrationID)
}

func (r *fakeClaims) ClaimByName(_ context.Context, requestID, memberID int32) (*domain.Dispatch, error) {
	return r.claimByName(requestID, memberID)
}

func (r *fakeClaims) Terminate(_ context.Context, dispatchID int32, outcome domain.TerminationOutcome, daysWorked int32, hoursWorked float64) (*domain.Dispatch, error) {
	return r.terminate(dispatchID, outcome, daysWorked, hoursWorked)
}

type fakeNotifier struct {
	mu       sync.Mutex
	subjects []string
}

func (n *fakeNotifier) NotifyAdmin(_ context.Context, subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	return nil
}
