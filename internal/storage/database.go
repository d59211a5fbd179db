package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sahyadri-heights/carpool-backend/internal/apperr"
	"github.com/sahyadri-heights/carpool-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/PostgreSQL
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.KindNotFound, message)
	}
	return err
}

// User operations

func (d *DatabaseStore) CreateUser(user *models.User) (*models.User, error) {
	if err := d.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (d *DatabaseStore) GetUserByID(userID string) (*models.User, error) {
	var user models.User
	if err := d.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, notFound(err, "User not found")
	}
	return &user, nil
}

func (d *DatabaseStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := d.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "User not found")
	}
	return &user, nil
}

func (d *DatabaseStore) GetOrCreateUserByEmail(email string) (*models.User, error) {
	if user, err := d.GetUserByEmail(email); err == nil {
		return user, nil
	}
	return d.CreateUser(&models.User{Email: email})
}

func (d *DatabaseStore) GetAllUsers() ([]*models.User, error) {
	var users []*models.User
	if err := d.db.Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (d *DatabaseStore) GetUsersByStatus(status string) ([]*models.User, error) {
	var users []*models.User
	if err := d.db.Where("status = ?", status).Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (d *DatabaseStore) UpdateUser(user *models.User) error {
	return d.db.Save(user).Error
}

func (d *DatabaseStore) DeleteUser(userID string) error {
	result := d.db.Where("user_id = ?", userID).Delete(&models.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "User not found")
	}
	return nil
}

func (d *DatabaseStore) CountAdmins() (int64, error) {
	var count int64
	err := d.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error
	return count, err
}

func (d *DatabaseStore) CountUsersByStatus(status string) (int64, error) {
	var count int64
	err := d.db.Model(&models.User{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// OTP operations

func (d *DatabaseStore) CreateOTP(otp *models.OtpToken) (*models.OtpToken, error) {
	if err := d.db.Create(otp).Error; err != nil {
		return nil, err
	}
	return otp, nil
}

func (d *DatabaseStore) GetLatestLiveOTP(email string, now time.Time) (*models.OtpToken, error) {
	var otp models.OtpToken
	err := d.db.
		Where("email = ? AND consumed_at IS NULL AND expires_at > ?", email, now).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindInvalidOrExpired, "Invalid or expired code")
		}
		return nil, err
	}
	return &otp, nil
}

func (d *DatabaseStore) CountOTPsSince(email string, since time.Time) (int64, error) {
	var count int64
	err := d.db.Model(&models.OtpToken{}).
		Where("email = ? AND created_at >= ?", email, since).
		Count(&count).Error
	return count, err
}

func (d *DatabaseStore) IncrementOTPAttempts(id uint) error {
	return d.db.Model(&models.OtpToken{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

// ConsumeOTP marks a token used exactly once. The guarded WHERE clause
// makes a second consumption attempt report the token as spent.
func (d *DatabaseStore) ConsumeOTP(id uint) error {
	result := d.db.Model(&models.OtpToken{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.KindInvalidOrExpired, "Invalid or expired code")
	}
	return nil
}

func (d *DatabaseStore) DeleteExpiredOTPs() error {
	return d.db.Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&models.OtpToken{}).Error
}

// Trip operations

func (d *DatabaseStore) CreateTrip(trip *models.Trip) (*models.Trip, error) {
	if err := d.db.Create(trip).Error; err != nil {
		return nil, err
	}
	return trip, nil
}

func (d *DatabaseStore) GetTrip(tripID string) (*models.Trip, error) {
	var trip models.Trip
	if err := d.db.Where("trip_id = ?", tripID).First(&trip).Error; err != nil {
		return nil, notFound(err, "Trip not found")
	}
	return &trip, nil
}

func (d *DatabaseStore) GetActiveTrips(now time.Time) ([]*models.Trip, error) {
	var trips []*models.Trip
	err := d.db.
		Where("status = ?", models.TripStatusActive).
		Where("type = ? OR (depart_at > ? AND (expires_at IS NULL OR expires_at > ?))",
			models.TripTypeDaily, now, now).
		Order("depart_at").
		Find(&trips).Error
	if err != nil {
		return nil, err
	}
	return trips, nil
}

func (d *DatabaseStore) GetTripsByDriver(driverID string) ([]*models.Trip, error) {
	var trips []*models.Trip
	if err := d.db.Where("driver_id = ?", driverID).Order("created_at").Find(&trips).Error; err != nil {
		return nil, err
	}
	return trips, nil
}

func (d *DatabaseStore) GetTripsDepartingBetween(from, to time.Time) ([]*models.Trip, error) {
	var trips []*models.Trip
	err := d.db.
		Where("status = ? AND depart_at > ? AND depart_at < ?", models.TripStatusActive, from, to).
		Find(&trips).Error
	if err != nil {
		return nil, err
	}
	return trips, nil
}

func (d *DatabaseStore) UpdateTripStatus(tripID, status string) error {
	result := d.db.Model(&models.Trip{}).
		Where("trip_id = ?", tripID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "Trip not found")
	}
	return nil
}

func (d *DatabaseStore) CountActiveTrips() (int64, error) {
	var count int64
	err := d.db.Model(&models.Trip{}).
		Where("status = ?", models.TripStatusActive).
		Count(&count).Error
	return count, err
}

// Trip request operations

func (d *DatabaseStore) CreateTripRequest(req *models.TripRequest) (*models.TripRequest, error) {
	if err := d.db.Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

func (d *DatabaseStore) GetTripRequest(requestID string) (*models.TripRequest, error) {
	var req models.TripRequest
	if err := d.db.Where("request_id = ?", requestID).First(&req).Error; err != nil {
		return nil, notFound(err, "Request not found")
	}
	return &req, nil
}

func (d *DatabaseStore) GetRequestsByTrip(tripID string) ([]*models.TripRequest, error) {
	var requests []*models.TripRequest
	if err := d.db.Where("trip_id = ?", tripID).Order("created_at").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (d *DatabaseStore) GetRequestsByRider(riderID string) ([]*models.TripRequest, error) {
	var requests []*models.TripRequest
	if err := d.db.Where("rider_id = ?", riderID).Order("created_at").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (d *DatabaseStore) GetRequestByTripAndRider(tripID, riderID string) (*models.TripRequest, error) {
	var req models.TripRequest
	if err := d.db.Where("trip_id = ? AND rider_id = ?", tripID, riderID).First(&req).Error; err != nil {
		return nil, notFound(err, "Request not found")
	}
	return &req, nil
}

// UpdateTripRequestStatus moves a request to newStatus and adjusts the
// trip's booked-seat counter in one transaction. The trip row is locked
// for the duration, so the capacity check and the increment cannot be
// split by a concurrent confirmation.
func (d *DatabaseStore) UpdateTripRequestStatus(requestID, newStatus string) (*models.TripRequest, error) {
	var updated models.TripRequest
	err := d.db.Transaction(func(tx *gorm.DB) error {
		var req models.TripRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ?", requestID).First(&req).Error; err != nil {
			return notFound(err, "Request not found")
		}

		var trip models.Trip
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("trip_id = ?", req.TripID).First(&trip).Error; err != nil {
			return notFound(err, "Trip not found")
		}

		delta := seatDelta(req.Status, newStatus)
		if delta > 0 && trip.SeatsBooked >= trip.SeatsAvailable {
			return apperr.New(apperr.KindNoSeatsAvailable, "No seats available")
		}

		seats := trip.SeatsBooked + delta
		if seats < 0 {
			seats = 0
		}

		if err := tx.Model(&req).Update("status", newStatus).Error; err != nil {
			return err
		}
		if err := tx.Model(&trip).Update("seats_booked", seats).Error; err != nil {
			return err
		}

		req.Status = newStatus
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (d *DatabaseStore) UpdateTripRequestNote(requestID, note string) error {
	result := d.db.Model(&models.TripRequest{}).
		Where("request_id = ?", requestID).
		Update("note", note)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "Request not found")
	}
	return nil
}

// DeleteTripRequest removes a request; deleting a CONFIRMED request
// releases its seat in the same transaction.
func (d *DatabaseStore) DeleteTripRequest(requestID string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		var req models.TripRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ?", requestID).First(&req).Error; err != nil {
			return notFound(err, "Request not found")
		}

		if req.Status == models.RequestStatusConfirmed {
			var trip models.Trip
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("trip_id = ?", req.TripID).First(&trip).Error; err != nil {
				return notFound(err, "Trip not found")
			}
			seats := trip.SeatsBooked - 1
			if seats < 0 {
				seats = 0
			}
			if err := tx.Model(&trip).Update("seats_booked", seats).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&req).Error
	})
}

func (d *DatabaseStore) CountRequestsByStatus(status string) (int64, error) {
	var count int64
	err := d.db.Model(&models.TripRequest{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// Pool request operations

func (d *DatabaseStore) CreatePoolRequest(pool *models.PoolRequest) (*models.PoolRequest, error) {
	if err := d.db.Create(pool).Error; err != nil {
		return nil, err
	}
	return pool, nil
}

func (d *DatabaseStore) GetPoolRequest(poolID string) (*models.PoolRequest, error) {
	var pool models.PoolRequest
	if err := d.db.Where("pool_id = ?", poolID).First(&pool).Error; err != nil {
		return nil, notFound(err, "Pool request not found")
	}
	return &pool, nil
}

func (d *DatabaseStore) GetOpenPoolRequests() ([]*models.PoolRequest, error) {
	var pools []*models.PoolRequest
	err := d.db.
		Where("status = ?", models.PoolStatusOpen).
		Order("travel_at").
		Find(&pools).Error
	if err != nil {
		return nil, err
	}
	return pools, nil
}

func (d *DatabaseStore) UpdatePoolRequest(pool *models.PoolRequest) error {
	return d.db.Save(pool).Error
}

// Notice operations

func (d *DatabaseStore) CreateNotice(notice *models.Notice) (*models.Notice, error) {
	if err := d.db.Create(notice).Error; err != nil {
		return nil, err
	}
	return notice, nil
}

func (d *DatabaseStore) GetNotice(noticeID string) (*models.Notice, error) {
	var notice models.Notice
	if err := d.db.Where("notice_id = ?", noticeID).First(&notice).Error; err != nil {
		return nil, notFound(err, "Notice not found")
	}
	return &notice, nil
}

func (d *DatabaseStore) GetNotices() ([]*models.Notice, error) {
	var notices []*models.Notice
	if err := d.db.Order("pinned DESC, created_at DESC").Find(&notices).Error; err != nil {
		return nil, err
	}
	return notices, nil
}

func (d *DatabaseStore) UpdateNotice(notice *models.Notice) error {
	return d.db.Save(notice).Error
}

func (d *DatabaseStore) DeleteNotice(noticeID string) error {
	result := d.db.Where("notice_id = ?", noticeID).Delete(&models.Notice{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "Notice not found")
	}
	return nil
}

// Charge operations

func (d *DatabaseStore) CreateCharge(charge *models.Charge) (*models.Charge, error) {
	if err := d.db.Create(charge).Error; err != nil {
		return nil, err
	}
	return charge, nil
}

func (d *DatabaseStore) GetCharge(chargeID string) (*models.Charge, error) {
	var charge models.Charge
	if err := d.db.Where("charge_id = ?", chargeID).First(&charge).Error; err != nil {
		return nil, notFound(err, "Charge not found")
	}
	return &charge, nil
}

func (d *DatabaseStore) GetCharges() ([]*models.Charge, error) {
	var charges []*models.Charge
	if err := d.db.Order("created_at").Find(&charges).Error; err != nil {
		return nil, err
	}
	return charges, nil
}

func (d *DatabaseStore) UpdateCharge(charge *models.Charge) error {
	return d.db.Save(charge).Error
}

func (d *DatabaseStore) DeleteCharge(chargeID string) error {
	result := d.db.Where("charge_id = ?", chargeID).Delete(&models.Charge{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "Charge not found")
	}
	return nil
}

// Terms operations

func (d *DatabaseStore) CreateTermsDocument(doc *models.TermsDocument) (*models.TermsDocument, error) {
	if doc.Version == 0 {
		var max int64
		d.db.Model(&models.TermsDocument{}).Select("COALESCE(MAX(version), 0)").Scan(&max)
		doc.Version = int(max) + 1
	}
	if err := d.db.Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *DatabaseStore) GetLatestTerms() (*models.TermsDocument, error) {
	var doc models.TermsDocument
	if err := d.db.Order("version DESC").First(&doc).Error; err != nil {
		return nil, notFound(err, "No terms published")
	}
	return &doc, nil
}
