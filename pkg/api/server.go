package api

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/travigo/tripscheduler/pkg/api/routes"
)

type Server struct {
	BulkScheduler *routes.BulkScheduler

	// Auth guards the scheduler routes when set
	Auth fiber.Handler

	Gatherer   prometheus.Gatherer
	Health     http.Handler
	QueueStats http.Handler
}

func (s *Server) App() *fiber.App {
	webApp := fiber.New(fiber.Config{DisableStartupMessage: true})
	webApp.Use(NewLogger())

	webApp.Get("version", routes.APIVersion)

	if s.Gatherer != nil {
		webApp.Get("metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}
	if s.Health != nil {
		webApp.Get("health", adaptor.HTTPHandler(s.Health))
	}
	if s.QueueStats != nil {
		webApp.Get("queues/stats", adaptor.HTTPHandler(s.QueueStats))
	}

	var group fiber.Router
	if s.Auth != nil {
		group = webApp.Group("/bulk-scheduler", s.Auth)
	} else {
		group = webApp.Group("/bulk-scheduler")
	}
	routes.BulkSchedulerRouter(group, s.BulkScheduler)

	return webApp
}
