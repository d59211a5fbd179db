package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sahyadri-heights/carpool-backend/internal/apperr"
	"github.com/sahyadri-heights/carpool-backend/internal/models"
)

// MemoryStore holds all data in memory. Used for tests and local
// development via USE_MEMORY_STORE=true.
type MemoryStore struct {
	users    map[string]*models.User
	otps     map[uint]*models.OtpToken
	trips    map[string]*models.Trip
	requests map[string]*models.TripRequest
	pools    map[string]*models.PoolRequest
	notices  map[string]*models.Notice
	charges  map[string]*models.Charge
	terms    map[int]*models.TermsDocument

	// bookingMu guards trips and requests together so seat accounting
	// stays atomic with request transitions, mirroring the database
	// store's transactions.
	bookingMu sync.Mutex
	userMu    sync.RWMutex
	otpMu     sync.Mutex
	poolMu    sync.RWMutex
	noticeMu  sync.RWMutex
	chargeMu  sync.RWMutex
	termsMu   sync.RWMutex

	userCounter    int
	otpCounter     uint
	tripCounter    int
	requestCounter int
	poolCounter    int
	noticeCounter  int
	chargeCounter  int
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		otps:     make(map[uint]*models.OtpToken),
		trips:    make(map[string]*models.Trip),
		requests: make(map[string]*models.TripRequest),
		pools:    make(map[string]*models.PoolRequest),
		notices:  make(map[string]*models.Notice),
		charges:  make(map[string]*models.Charge),
		terms:    make(map[int]*models.TermsDocument),
	}
}

// User operations

func (m *MemoryStore) CreateUser(user *models.User) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, apperr.New(apperr.KindInvalidState, "Email already registered")
		}
	}

	m.userCounter++
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("USR%05d", m.userCounter)
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Status == "" {
		user.Status = models.UserStatusPending
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	m.users[user.UserID] = user
	return user, nil
}

func (m *MemoryStore) GetUserByID(userID string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[userID]
	if !exists {
		return nil, apperr.New(apperr.KindNotFound, "User not found")
	}
	return user, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "User not found")
}

func (m *MemoryStore) GetOrCreateUserByEmail(email string) (*models.User, error) {
	if user, err := m.GetUserByEmail(email); err == nil {
		return user, nil
	}
	return m.CreateUser(&models.User{Email: email})
}

func (m *MemoryStore) GetAllUsers() ([]*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	users := make([]*models.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}

func (m *MemoryStore) GetUsersByStatus(status string) ([]*models.User, error) {
	all, _ := m.GetAllUsers()
	var users []*models.User
	for _, user := range all {
		if user.Status == status {
			users = append(users, user)
		}
	}
	return users, nil
}

func (m *MemoryStore) UpdateUser(user *models.User) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if _, exists := m.users[user.UserID]; !exists {
		return apperr.New(apperr.KindNotFound, "User not found")
	}
	user.UpdatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *MemoryStore) DeleteUser(userID string) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if _, exists := m.users[userID]; !exists {
		return apperr.New(apperr.KindNotFound, "User not found")
	}
	delete(m.users, userID)
	return nil
}

func (m *MemoryStore) CountAdmins() (int64, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	var count int64
	for _, user := range m.users {
		if user.Role == models.RoleAdmin {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) CountUsersByStatus(status string) (int64, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	var count int64
	for _, user := range m.users {
		if user.Status == status {
			count++
		}
	}
	return count, nil
}

// OTP operations

func (m *MemoryStore) CreateOTP(otp *models.OtpToken) (*models.OtpToken, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	m.otpCounter++
	otp.ID = m.otpCounter
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	otp.UpdatedAt = otp.CreatedAt

	m.otps[otp.ID] = otp
	return otp, nil
}

func (m *MemoryStore) GetLatestLiveOTP(email string, now time.Time) (*models.OtpToken, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	var latest *models.OtpToken
	for _, otp := range m.otps {
		if otp.Email != email || !otp.IsLive(now) {
			continue
		}
		if latest == nil || otp.CreatedAt.After(latest.CreatedAt) {
			latest = otp
		}
	}
	if latest == nil {
		return nil, apperr.New(apperr.KindInvalidOrExpired, "Invalid or expired code")
	}
	return latest, nil
}

func (m *MemoryStore) CountOTPsSince(email string, since time.Time) (int64, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	var count int64
	for _, otp := range m.otps {
		if otp.Email == email && !otp.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) IncrementOTPAttempts(id uint) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp, exists := m.otps[id]
	if !exists {
		return apperr.New(apperr.KindNotFound, "Token not found")
	}
	otp.Attempts++
	otp.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) ConsumeOTP(id uint) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp, exists := m.otps[id]
	if !exists {
		return apperr.New(apperr.KindNotFound, "Token not found")
	}
	if otp.ConsumedAt != nil {
		return apperr.New(apperr.KindInvalidOrExpired, "Invalid or expired code")
	}
	now := time.Now()
	otp.ConsumedAt = &now
	otp.UpdatedAt = now
	return nil
}

func (m *MemoryStore) DeleteExpiredOTPs() error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	now := time.Now()
	for id, otp := range m.otps {
		if now.After(otp.ExpiresAt) {
			delete(m.otps, id)
		}
	}
	return nil
}

// Trip operations

func (m *MemoryStore) CreateTrip(trip *models.Trip) (*models.Trip, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	m.tripCounter++
	if trip.TripID == "" {
		trip.TripID = fmt.Sprintf("TRP%05d", m.tripCounter)
	}
	if trip.Status == "" {
		trip.Status = models.TripStatusActive
	}
	trip.CreatedAt = time.Now()
	trip.UpdatedAt = trip.CreatedAt

	m.trips[trip.TripID] = trip
	return trip, nil
}

func (m *MemoryStore) GetTrip(tripID string) (*models.Trip, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	trip, exists := m.trips[tripID]
	if !exists {
		return nil, apperr.New(apperr.KindNotFound, "Trip not found")
	}
	return trip, nil
}

func (m *MemoryStore) GetActiveTrips(now time.Time) ([]*models.Trip, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	var trips []*models.Trip
	for _, trip := range m.trips {
		if trip.Status != models.TripStatusActive || trip.HasEnded(now) {
			continue
		}
		trips = append(trips, trip)
	}
	sort.Slice(trips, func(i, j int) bool { return trips[i].DepartAt.Before(trips[j].DepartAt) })
	return trips, nil
}

func (m *MemoryStore) GetTripsByDriver(driverID string) ([]*models.Trip, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	var trips []*models.Trip
	for _, trip := range m.trips {
		if trip.DriverID == driverID {
			trips = append(trips, trip)
		}
	}
	sort.Slice(trips, func(i, j int) bool { return trips[i].TripID < trips[j].TripID })
	return trips, nil
}

func (m *MemoryStore) GetTripsDepartingBetween(from, to time.Time) ([]*models.Trip, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	var trips []*models.Trip
	for _, trip := range m.trips {
		if trip.Status != models.TripStatusActive {
			continue
		}
		if trip.DepartAt.After(from) && trip.DepartAt.Before(to) {
			trips = append(trips, trip)
		}
	}
	return trips, nil
}

func (m *MemoryStore) UpdateTripStatus(tripID, status string) error {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	trip, exists := m.trips[tripID]
	if !exists {
		return apperr.New(apperr.KindNotFound, "Trip not found")
	}
	trip.Status = status
	trip.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) CountActiveTrips() (int64, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	var count int64
	for _, trip := range m.trips {
		if trip.Status == models.TripStatusActive {
			count++
		}
	}
	return count, nil
}

// Trip request operations

func (m *MemoryStore) CreateTripRequest(req *models.TripRequest) (*models.TripRequest, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	if _, exists := m.trips[req.TripID]; !exists {
		return nil, apperr.New(apperr.KindNotFound, "Trip not found")
	}

	m.requestCounter++
	if req.RequestID == "" {
		req.RequestID = fmt.Sprintf("REQ%05d", m.requestCounter)
	}
	if req.Status == "" {
		req.Status = models.RequestStatusPending
	}
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt

	m.requests[req.RequestID] = req
	return req, nil
}

func (m *MemoryStore) GetTripRequest(requestID string) (*models.TripRequest, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	req, exists := m.requests[requestID]
	if !exists {
		return nil, apperr.New(apperr.KindNotFound, "Request not found")
	}
	return req, nil
}

func (m *MemoryStore) GetRequestsByTrip(tripID string) ([]*models.TripRequest, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	var requests []*models.TripRequest
	for _, req := range m.requests {
		if req.TripID == tripID {
			requests = append(requests, req)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].RequestID < requests[j].RequestID })
	return requests, nil
}

func (m *MemoryStore) GetRequestsByRider(riderID string) ([]*models.TripRequest, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	var requests []*models.TripRequest
	for _, req := range m.requests {
		if req.RiderID == riderID {
			requests = append(requests, req)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].RequestID < requests[j].RequestID })
	return requests, nil
}

func (m *MemoryStore) GetRequestByTripAndRider(tripID, riderID string) (*models.TripRequest, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	for _, req := range m.requests {
		if req.TripID == tripID && req.RiderID == riderID {
			return req, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "Request not found")
}

// UpdateTripRequestStatus moves a request to newStatus and adjusts the
// trip's seat counter under the same lock. The capacity check happens
// here, at the instant of transition, so two concurrent confirmations
// cannot both pass it.
func (m *MemoryStore) UpdateTripRequestStatus(requestID, newStatus string) (*models.TripRequest, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	req, exists := m.requests[requestID]
	if !exists {
		return nil, apperr.New(apperr.KindNotFound, "Request not found")
	}
	trip, exists := m.trips[req.TripID]
	if !exists {
		return nil, apperr.New(apperr.KindNotFound, "Trip not found")
	}

	delta := seatDelta(req.Status, newStatus)
	if delta > 0 && !trip.HasFreeSeat() {
		return nil, apperr.New(apperr.KindNoSeatsAvailable, "No seats available")
	}

	now := time.Now()
	req.Status = newStatus
	req.UpdatedAt = now
	trip.SeatsBooked += delta
	if trip.SeatsBooked < 0 {
		trip.SeatsBooked = 0
	}
	trip.UpdatedAt = now
	return req, nil
}

func (m *MemoryStore) UpdateTripRequestNote(requestID, note string) error {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	req, exists := m.requests[requestID]
	if !exists {
		return apperr.New(apperr.KindNotFound, "Request not found")
	}
	req.Note = note
	req.UpdatedAt = time.Now()
	return nil
}

// DeleteTripRequest removes a request; a CONFIRMED request releases its
// seat atomically with the deletion.
func (m *MemoryStore) DeleteTripRequest(requestID string) error {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	req, exists := m.requests[requestID]
	if !exists {
		return apperr.New(apperr.KindNotFound, "Request not found")
	}
	if req.Status == models.RequestStatusConfirmed {
		if trip, ok := m.trips[req.TripID]; ok {
			trip.SeatsBooked--
			if trip.SeatsBooked < 0 {
				trip.SeatsBooked = 0
			}
			trip.UpdatedAt = time.Now()
		}
	}
	delete(m.requests, requestID)
	return nil
}

func (m *MemoryStore) CountRequestsByStatus(status string) (int64, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	var count int64
	for _, req := range m.requests {
		if req.Status == status {
			count++
		}
	}
	return count, nil
}

// Pool request operations

func (m *MemoryStore) CreatePoolRequest(pool *models.PoolRequest) (*models.PoolRequest, error) {
	m.poolMu.Lock()
	defer m.poolMu.Unlock()

	m.poolCounter++
	if pool.PoolID == "" {
		pool.PoolID = fmt.Sprintf("POOL%05d", m.poolCounter)
	}
	if pool.Status == "" {
		pool.Status = models.PoolStatusOpen
	}
	if pool.Seats == 0 {
		pool.Seats = 1
	}
	pool.CreatedAt = time.Now()
	pool.UpdatedAt = pool.CreatedAt

	m.pools[pool.PoolID] = pool
	return pool, nil
}

func (m *MemoryStore) GetPoolRequest(poolID string) (*models.PoolRequest, error) {
	m.poolMu.RLock()
	defer m.poolMu.RUnlock()

	pool, exists := m.pools[poolID]
	if !exists {
		return nil, apperr.New(apperr.KindNotFound, "Pool request not found")
	}
	return pool, nil
}

func (m *MemoryStore) GetOpenPoolRequests() ([]*models.PoolRequest, error) {
	m.poolMu.RLock()
	defer m.poolMu.RUnlock()

	var pools []*models.PoolRequest
	for _, pool := range m.pools {
		if pool.Status == models.PoolStatusOpen {
			pools = append(pools, pool)
		}
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].TravelAt.Before(pools[j].TravelAt) })
	return pools, nil
}

func (m *MemoryStore) UpdatePoolRequest(pool *models.PoolRequest) error {
	m.poolMu.Lock()
	defer m.poolMu.Unlock()

	if _, exists := m.pools[pool.PoolID]; !exists {
		return apperr.New(apperr.KindNotFound, "Pool request not found")
	}
	pool.UpdatedAt = time.Now()
	m.pools[pool.PoolID] = pool
	return nil
}

// Notice operations

func (m *MemoryStore) CreateNotice(notice *models.Notice) (*models.Notice, error) {
	m.noticeMu.Lock()
	defer m.noticeMu.Unlock()

	m.noticeCounter++
	if notice.NoticeID == "" {
		notice.NoticeID = fmt.Sprintf("NTC%05d", m.noticeCounter)
	}
	notice.CreatedAt = time.Now()
	notice.UpdatedAt = notice.CreatedAt

	m.notices[notice.NoticeID] = notice
	return notice, nil
}

func (m *MemoryStore) GetNotice(noticeID string) (*models.Notice, error) {
	m.noticeMu.RLock()
	defer m.noticeMu.RUnlock()

	notice, exists := m.notices[noticeID]
	if !exists {
		return nil, apperr.New(apperr.KindNotFound, "Notice not found")
	}
	return notice, nil
}

func (m *MemoryStore) GetNotices() ([]*models.Notice, error) {
	m.noticeMu.RLock()
	defer m.noticeMu.RUnlock()

	notices := make([]*models.Notice, 0, len(m.notices))
	for _, notice := range m.notices {
		notices = append(notices, notice)
	}
	// Pinned notices first, newest first within each group
	sort.Slice(notices, func(i, j int) bool {
		if notices[i].Pinned != notices[j].Pinned {
			return notices[i].Pinned
		}
		return notices[i].CreatedAt.After(notices[j].CreatedAt)
	})
	return notices, nil
}

func (m *MemoryStore) UpdateNotice(notice *models.Notice) error {
	m.noticeMu.Lock()
	defer m.noticeMu.Unlock()

	if _, exists := m.notices[notice.NoticeID]; !exists {
		return apperr.New(apperr.KindNotFound, "Notice not found")
	}
	notice.UpdatedAt = time.Now()
	m.notices[notice.NoticeID] = notice
	return nil
}

func (m *MemoryStore) DeleteNotice(noticeID string) error {
	m.noticeMu.Lock()
	defer m.noticeMu.Unlock()

	if _, exists := m.notices[noticeID]; !exists {
		return apperr.New(apperr.KindNotFound, "Notice not found")
	}
	delete(m.notices, noticeID)
	return nil
}

// Charge operations

func (m *MemoryStore) CreateCharge(charge *models.Charge) (*models.Charge, error) {
	m.chargeMu.Lock()
	defer m.chargeMu.Unlock()

	m.chargeCounter++
	if charge.ChargeID == "" {
		charge.ChargeID = fmt.Sprintf("CHG%05d", m.chargeCounter)
	}
	charge.CreatedAt = time.Now()
	charge.UpdatedAt = charge.CreatedAt

	m.charges[charge.ChargeID] = charge
	return charge, nil
}

func (m *MemoryStore) GetCharge(chargeID string) (*models.Charge, error) {
	m.chargeMu.RLock()
	defer m.chargeMu.RUnlock()

	charge, exists := m.charges[chargeID]
	if !exists {
		return nil, apperr.New(apperr.KindNotFound, "Charge not found")
	}
	return charge, nil
}

func (m *MemoryStore) GetCharges() ([]*models.Charge, error) {
	m.chargeMu.RLock()
	defer m.chargeMu.RUnlock()

	charges := make([]*models.Charge, 0, len(m.charges))
	for _, charge := range m.charges {
		charges = append(charges, charge)
	}
	sort.Slice(charges, func(i, j int) bool { return charges[i].ChargeID < charges[j].ChargeID })
	return charges, nil
}

func (m *MemoryStore) UpdateCharge(charge *models.Charge) error {
	m.chargeMu.Lock()
	defer m.chargeMu.Unlock()

	if _, exists := m.charges[charge.ChargeID]; !exists {
		return apperr.New(apperr.KindNotFound, "Charge not found")
	}
	charge.UpdatedAt = time.Now()
	m.charges[charge.ChargeID] = charge
	return nil
}

func (m *MemoryStore) DeleteCharge(chargeID string) error {
	m.chargeMu.Lock()
	defer m.chargeMu.Unlock()

	if _, exists := m.charges[chargeID]; !exists {
		return apperr.New(apperr.KindNotFound, "Charge not found")
	}
	delete(m.charges, chargeID)
	return nil
}

// Terms operations

func (m *MemoryStore) CreateTermsDocument(doc *models.TermsDocument) (*models.TermsDocument, error) {
	m.termsMu.Lock()
	defer m.termsMu.Unlock()

	if doc.Version == 0 {
		doc.Version = len(m.terms) + 1
	}
	if _, exists := m.terms[doc.Version]; exists {
		return nil, apperr.New(apperr.KindInvalidState, "Terms version already published")
	}
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt

	m.terms[doc.Version] = doc
	return doc, nil
}

func (m *MemoryStore) GetLatestTerms() (*models.TermsDocument, error) {
	m.termsMu.RLock()
	defer m.termsMu.RUnlock()

	var latest *models.TermsDocument
	for _, doc := range m.terms {
		if latest == nil || doc.Version > latest.Version {
			latest = doc
		}
	}
	if latest == nil {
		return nil, apperr.New(apperr.KindNotFound, "No terms published")
	}
	return latest, nil
}
