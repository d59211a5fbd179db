package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/sahyadri-heights/carpool-backend/internal/models"
	"github.com/sahyadri-heights/carpool-backend/internal/services"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

// MaintenanceJob runs the scheduled housekeeping tasks: expired OTP
// cleanup and departure reminders for confirmed riders.
type MaintenanceJob struct {
	store     storage.Store
	notifier  services.Notifier
	isRunning bool
}

// NewMaintenanceJob creates a new maintenance job scheduler
func NewMaintenanceJob(store storage.Store, notifier services.Notifier) *MaintenanceJob {
	return &MaintenanceJob{
		store:    store,
		notifier: notifier,
	}
}

// Start begins all scheduled jobs
func (j *MaintenanceJob) Start() {
	if j.isRunning {
		log.Println("Maintenance jobs already running")
		return
	}

	j.isRunning = true
	log.Println("Starting scheduled maintenance jobs...")

	go j.scheduleOTPCleanup()
	go j.scheduleDepartureReminders()

	log.Println("All maintenance jobs started successfully")
}

// Stop halts all scheduled jobs
func (j *MaintenanceJob) Stop() {
	j.isRunning = false
	log.Println("Stopping scheduled maintenance jobs...")
}

// OTP CLEANUP - Runs every hour
func (j *MaintenanceJob) scheduleOTPCleanup() {
	for j.isRunning {
		time.Sleep(1 * time.Hour)
		if !j.isRunning {
			break
		}
		if err := j.store.DeleteExpiredOTPs(); err != nil {
			log.Printf("Error deleting expired OTPs: %v", err)
		}
	}
}

// DEPARTURE REMINDERS - Runs every 15 minutes, reminds confirmed
// riders about trips departing within the next hour
func (j *MaintenanceJob) scheduleDepartureReminders() {
	for j.isRunning {
		time.Sleep(15 * time.Minute)
		if !j.isRunning {
			break
		}
		j.sendDepartureReminders()
	}
}

func (j *MaintenanceJob) sendDepartureReminders() {
	if j.notifier == nil {
		return
	}

	now := time.Now()
	trips, err := j.store.GetTripsDepartingBetween(now, now.Add(1*time.Hour))
	if err != nil {
		log.Printf("Error getting upcoming trips: %v", err)
		return
	}

	sentCount := 0
	for _, trip := range trips {
		requests, err := j.store.GetRequestsByTrip(trip.TripID)
		if err != nil {
			log.Printf("Error getting requests for trip %s: %v", trip.TripID, err)
			continue
		}

		for _, req := range requests {
			if req.Status != models.RequestStatusConfirmed {
				continue
			}
			rider, err := j.store.GetUserByID(req.RiderID)
			if err != nil || rider.Phone == "" {
				continue
			}

			body := fmt.Sprintf("Reminder: your ride %s → %s leaves at %s from %s.",
				trip.Origin, trip.Destination,
				trip.DepartAt.Format("3:04 PM"), trip.PickupPoint)

			if err := j.notifier.SendMessage(rider.Phone, body); err != nil {
				log.Printf("Failed to send reminder to %s: %v", rider.UserID, err)
				continue
			}
			sentCount++
		}
	}

	if sentCount > 0 {
		log.Printf("Departure reminders sent: %d", sentCount)
	}
}
