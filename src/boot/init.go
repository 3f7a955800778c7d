package boot

import (
	"log"
	"time"
	"tix/src/common"
	"tix/src/db"
	"tix/src/lib"
	"tix/src/models"
	"tix/src/types"
)

func InitDb() {
	conn := db.GetDb()
	err := conn.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.TicketType{},
		&models.VenueLayout{},
		&models.Seat{},
		&models.Order{},
		&models.OrderItem{},
		&models.IssuedTicket{},
		&models.TeamMember{},
		&models.SellerPayout{},
		&models.PaymentConfig{},
		&models.Setting{},
		&models.JobTask{},
	)
	if err != nil {
		log.Fatalf("Error on AutoMigrate: %s\n", err.Error())
	}
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Fatalf("Could not initialize scheduler: %s\n", err.Error())
	}
	sched.Start()
	go RecoverQueuedJobs()
}

// RecoverQueuedJobs re-queues pending scheduled tasks after a restart. Jobs
// whose run time already passed fire immediately.
func RecoverQueuedJobs() {
	conn := db.GetDb()
	var tasks []models.JobTask
	if err := conn.Where("status = ?", "pending").Find(&tasks).Error; err != nil {
		log.Printf("Could not load queued jobs: %s\n", err.Error())
		return
	}
	log.Printf("Recovering %d queued jobs\n", len(tasks))
	now := time.Now()
	for _, task := range tasks {
		clientId, _ := task.Payload["producerClientId"].(string)
		if !task.RunsAt.After(now) {
			if err := lib.KafkaProduceMessage(clientId, task.Topic, task.Payload); err != nil {
				log.Printf("Could not fire overdue job %s: %s\n", task.ID, err.Error())
			}
			continue
		}
		vars := map[string]string{"clientId": clientId, "topic": task.Topic}
		if _, err := lib.NewScheduledJob(task.RunsAt, vars, task.Payload); err != nil {
			log.Printf("Could not requeue job %s: %s\n", task.ID, err.Error())
		}
	}
}

// InitBroker wires the consumer side of the event lifecycle topics.
func InitBroker() {
	if _, err := lib.KafkaCreateTopics("events-published", "events-completed"); err != nil {
		log.Printf("Could not create topics: %s\n", err.Error())
	}
	lib.KafkaConsumeTopics("tix-api", []string{"events-published", "events-completed"}, handleBrokerMessage)
}

func handleBrokerMessage(topic string, payload map[string]any) {
	eventId, ok := payload["eventId"].(float64)
	if !ok {
		log.Printf("Message on %s has no eventId\n", topic)
		return
	}
	switch topic {
	case "events-completed":
		if err := common.CompleteEvent(uint(eventId)); err != nil {
			log.Printf("Could not complete event %d: %s\n", uint(eventId), err.Error())
			return
		}
		markJobDone(payload)
	case "events-published":
		notifyOwner(uint(eventId))
	}
}

func markJobDone(payload map[string]any) {
	jobId, ok := payload["JobID"].(string)
	if !ok {
		return
	}
	conn := db.GetDb()
	if err := conn.Model(&models.JobTask{}).Where("id = ?", jobId).Update("status", "done").Error; err != nil {
		log.Printf("Could not mark job %s done: %s\n", jobId, err.Error())
	}
}

func notifyOwner(eventId uint) {
	conn := db.GetDb()
	var event models.Event
	if err := conn.Preload("Owner").First(&event, eventId).Error; err != nil {
		log.Printf("Could not load event %d: %s\n", eventId, err.Error())
		return
	}
	if event.Status != types.EVENT_PUBLISHED || event.Owner.Email == "" {
		return
	}
	err := lib.SendMail(&lib.SendMailInput{
		From:     "noreply@tix.local",
		FromName: "Tix",
		To:       []string{event.Owner.Email},
		Subject:  "Your event is live",
		Body:     "Your event \"" + event.Title + "\" has been published and is now visible to buyers.",
	})
	if err != nil {
		log.Printf("Could not send publish notification: %s\n", err.Error())
	}
}
