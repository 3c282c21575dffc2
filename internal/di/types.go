/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived service instance and is passed to the
 * HTTP server so handlers share one set of services.
 */
package di

import (
	"github.com/aristath/comptroller/internal/database"
	"github.com/aristath/comptroller/internal/events"
	"github.com/aristath/comptroller/internal/modules/classifier"
	"github.com/aristath/comptroller/internal/modules/history"
	"github.com/aristath/comptroller/internal/modules/multiplier"
	"github.com/aristath/comptroller/internal/modules/report"
	"github.com/aristath/comptroller/internal/modules/snapshot"
	"github.com/aristath/comptroller/internal/modules/valuation"
	"github.com/aristath/comptroller/internal/scheduler"
)

// Container holds all dependencies for the application.
type Container struct {
	// Databases
	HistoryDB *database.DB

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Valuation engine
	Table            multiplier.Table
	Resolver         *multiplier.Resolver
	ValuationService *valuation.Service

	// Collaborator services
	SnapshotStore  *snapshot.Store
	Matcher        classifier.Matcher
	ReportService  *report.Service
	HistoryRepo    *history.Repository
	HistoryService *history.Service

	subscriptions []events.Subscription
}

// JobInstances holds the registered background jobs for manual triggering.
type JobInstances struct {
	HistoryPrune      scheduler.Job
	HistoryCheckpoint scheduler.Job
}

// All returns the jobs keyed by name.
func (j *JobInstances) All() map[string]scheduler.Job {
	jobs := make(map[string]scheduler.Job)
	if j == nil {
		return jobs
	}
	for _, job := range []scheduler.Job{j.HistoryPrune, j.HistoryCheckpoint} {
		if job != nil {
			jobs[job.Name()] = job
		}
	}
	return jobs
}

// Close unsubscribes the event consumers and closes the databases.
func (c *Container) Close() error {
	if c.EventBus != nil {
		for _, sub := range c.subscriptions {
			c.EventBus.Unsubscribe(sub)
		}
		c.subscriptions = nil
	}
	if c.HistoryDB != nil {
		return c.HistoryDB.Close()
	}
	return nil
}
