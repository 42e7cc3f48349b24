package boot

import (
	"consultly/src/common"
	"consultly/src/db"
	"consultly/src/lib"
	"consultly/src/models"
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Consultant{},
		&models.Service{},
		&models.Booking{},
		&models.PaymentTransaction{},
		&models.PlatformFeeConfig{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler starts the periodic settlement sweep. Every run looks for
// paid bookings whose session ended without a transfer and settles them.
func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	j, err := sched.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(func() {
			common.SweepPendingSettlements(context.Background())
		}),
	)
	if err != nil {
		log.Printf("Error scheduling settlement sweep: %s\n", err.Error())
		return
	}
	log.Printf("Settlement sweep scheduled: %s\n", j.ID().String())
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}

func InitBroker() {
	go lib.KafkaCreateTopics("payment-events")
	lib.KafkaConsumer("consultly-analytics", "payment-events")
}

// InitWorkers attaches the SQS consumers: queued settlement retries and the
// outbound mail queue.
func InitWorkers() {
	go lib.SQSConsume(os.Getenv("SETTLEMENT_QUEUE"), func(body string) error {
		bookingId := gjson.Get(body, "bookingId")
		if !bookingId.Exists() {
			log.Printf("[worker] settlement message without bookingId: %s\n", body)
			return nil
		}
		result := common.SettleBooking(context.Background(), uint(bookingId.Uint()))
		if !result.Success && result.Retryable {
			// Leaving the message on the queue lets SQS redeliver it after
			// the visibility timeout.
			return lib.ErrRequeue
		}
		if !result.Success {
			log.Printf("[worker] settlement for booking %d failed permanently: %s\n", bookingId.Uint(), result.Error)
		}
		return nil
	})

	go lib.SQSConsume(os.Getenv("EMAIL_QUEUE"), func(body string) error {
		var input lib.SendMailInput
		if err := json.Unmarshal([]byte(body), &input); err != nil {
			log.Printf("[worker] could not parse mail message: %s\n", err.Error())
			return nil
		}
		return lib.SendMail(&input)
	})
}
