package storage

import (
	"time"

	"github.com/sahyadri-heights/carpool-backend/internal/models"
)

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for storage operations
type Store interface {
	// User operations
	CreateUser(user *models.User) (*models.User, error)
	GetUserByID(userID string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetOrCreateUserByEmail(email string) (*models.User, error)
	GetAllUsers() ([]*models.User, error)
	GetUsersByStatus(status string) ([]*models.User, error)
	UpdateUser(user *models.User) error
	DeleteUser(userID string) error
	CountAdmins() (int64, error)
	CountUsersByStatus(status string) (int64, error)

	// OTP operations
	CreateOTP(otp *models.OtpToken) (*models.OtpToken, error)
	GetLatestLiveOTP(email string, now time.Time) (*models.OtpToken, error)
	CountOTPsSince(email string, since time.Time) (int64, error)
	IncrementOTPAttempts(id uint) error
	ConsumeOTP(id uint) error
	DeleteExpiredOTPs() error

	// Trip operations
	CreateTrip(trip *models.Trip) (*models.Trip, error)
	GetTrip(tripID string) (*models.Trip, error)
	GetActiveTrips(now time.Time) ([]*models.Trip, error)
	GetTripsByDriver(driverID string) ([]*models.Trip, error)
	GetTripsDepartingBetween(from, to time.Time) ([]*models.Trip, error)
	UpdateTripStatus(tripID, status string) error
	CountActiveTrips() (int64, error)

	// Trip request operations. Status updates and deletions adjust the
	// trip's seat counter atomically with the row change.
	CreateTripRequest(req *models.TripRequest) (*models.TripRequest, error)
	GetTripRequest(requestID string) (*models.TripRequest, error)
	GetRequestsByTrip(tripID string) ([]*models.TripRequest, error)
	GetRequestsByRider(riderID string) ([]*models.TripRequest, error)
	GetRequestByTripAndRider(tripID, riderID string) (*models.TripRequest, error)
	UpdateTripRequestStatus(requestID, newStatus string) (*models.TripRequest, error)
	UpdateTripRequestNote(requestID, note string) error
	DeleteTripRequest(requestID string) error
	CountRequestsByStatus(status string) (int64, error)

	// Pool request operations
	CreatePoolRequest(pool *models.PoolRequest) (*models.PoolRequest, error)
	GetPoolRequest(poolID string) (*models.PoolRequest, error)
	GetOpenPoolRequests() ([]*models.PoolRequest, error)
	UpdatePoolRequest(pool *models.PoolRequest) error

	// Notice operations
	CreateNotice(notice *models.Notice) (*models.Notice, error)
	GetNotice(noticeID string) (*models.Notice, error)
	GetNotices() ([]*models.Notice, error)
	UpdateNotice(notice *models.Notice) error
	DeleteNotice(noticeID string) error

	// Charge operations
	CreateCharge(charge *models.Charge) (*models.Charge, error)
	GetCharge(chargeID string) (*models.Charge, error)
	GetCharges() ([]*models.Charge, error)
	UpdateCharge(charge *models.Charge) error
	DeleteCharge(chargeID string) error

	// Terms operations
	CreateTermsDocument(doc *models.TermsDocument) (*models.TermsDocument, error)
	GetLatestTerms() (*models.TermsDocument, error)
}

// seatDelta returns the change to a trip's booked-seat counter when a
// request moves from oldStatus to newStatus. Exactly one of the two
// states being CONFIRMED means a seat is claimed or released.
func seatDelta(oldStatus, newStatus string) int {
	if oldStatus == newStatus {
		return 0
	}
	if newStatus == models.RequestStatusConfirmed {
		return 1
	}
	if oldStatus == models.RequestStatusConfirmed {
		return -1
	}
	return 0
}
