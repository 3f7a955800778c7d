package lib

import (
	"log"
	"time"
	"tix/src/config"
	"tix/src/types"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

var scheduler gocron.Scheduler

func NewScheduler(s gocron.Scheduler) {
	scheduler = s
}

func GetScheduler() (gocron.Scheduler, error) {
	if scheduler != nil {
		return scheduler, nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("Error initializing Scheduler: %s\n", err.Error())
		return nil, err
	}
	scheduler = sched
	numJobs := len(sched.Jobs())
	log.Printf("Jobs in queue: %d\n", numJobs)
	return sched, nil
}

func CreateOneTimeJob(def gocron.JobDefinition, task gocron.Task) (*string, error) {
	sched, err := GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return nil, err
	}
	j, err := sched.NewJob(
		def,
		task,
	)
	if err != nil {
		return nil, err
	}
	id := j.ID().String()
	log.Printf("Job: %s %s\n", id, j.Name())
	return &id, nil
}

// NewScheduledJob queues a one-time job that produces a broker message at
// startDate. vars carries clientId and topic for the producer.
func NewScheduledJob(startDate time.Time, vars map[string]string, p types.JSONB) (*uuid.UUID, error) {
	clientId := vars["clientId"]
	topic := vars["topic"]
	id, err := CreateOneTimeJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(startDate)),
		gocron.NewTask(func(p types.JSONB) {
			log.Println("Running scheduled task...")
			if err := KafkaProduceMessage(clientId, topic, p); err != nil {
				log.Printf("Error on producing message: %s\n", err.Error())
			}
		}, p),
	)
	if err != nil {
		log.Printf("Error creating job: %s\n", err.Error())
		return nil, err
	}
	jid, err := uuid.Parse(*id)
	if err != nil {
		return nil, err
	}
	sRunsAt := startDate.Format(config.TIME_PARSE_FORMAT)
	log.Printf("New Job scheduled on: %s %s\n", jid.String(), sRunsAt)
	return &jid, nil
}
