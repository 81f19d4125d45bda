package rest

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/storefront-tools/demo-provisioner/internal/application"
	"github.com/storefront-tools/demo-provisioner/internal/application/dto"
	"github.com/storefront-tools/demo-provisioner/internal/application/events"
	"github.com/storefront-tools/demo-provisioner/internal/application/interfaces"
	"github.com/storefront-tools/demo-provisioner/internal/application/runlock"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
	"github.com/storefront-tools/demo-provisioner/internal/infra/db"
	shared "github.com/storefront-tools/demo-provisioner/pkg/interfaces"
)

type Server struct {
	handlers *application.Handlers
	jobs     interfaces.JobStore
	locks    *runlock.Registry
}

func NewServer(handlers *application.Handlers, jobs interfaces.JobStore, locks *runlock.Registry) *Server {
	return &Server{handlers: handlers, jobs: jobs, locks: locks}
}

func RegisterHandlers(app *fiber.App, s *Server) {
	app.Post("/projects", s.CreateProject)
	app.Get("/projects/:id", s.GetProject)
	app.Get("/projects/:id/progress", s.GetProgress)
	app.Post("/projects/:id/provision", s.Provision)
	app.Post("/projects/:id/cleanup", s.Cleanup)
	app.Post("/projects/:id/import", s.ImportData)
}

func (s *Server) CreateProject(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	projectID, err := s.handlers.CreateProject.Handle(c.Context(), req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreateProjectResponse{ProjectID: projectID})
}

func (s *Server) GetProject(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project id"})
	}

	resp, err := s.handlers.GetProject.Query(c.Context(), projectID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (s *Server) GetProgress(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project id"})
	}

	resp, err := s.handlers.GetProject.Query(c.Context(), projectID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(resp.Progress)
}

func (s *Server) Provision(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project id"})
	}
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	event := events.ProvisionProject{
		ProjectID:   projectID,
		RepoName:    req.RepoName,
		ContentOrg:  req.ContentOrg,
		ContentSite: req.ContentSite,
		SourceOrg:   req.SourceOrg,
		SourceSite:  req.SourceSite,
		BackendType: req.BackendType,
		CreatedAt:   time.Now(),
	}
	return s.enqueue(c, projectID, consts.JobProvision, event)
}

func (s *Server) Cleanup(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project id"})
	}
	var req dto.CleanupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	event := events.CleanupProject{ProjectID: projectID, Options: req, CreatedAt: time.Now()}
	return s.enqueue(c, projectID, consts.JobCleanup, event)
}

func (s *Server) ImportData(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid project id"})
	}

	event := events.ImportDemoData{ProjectID: projectID, CreatedAt: time.Now()}
	return s.enqueue(c, projectID, consts.JobImportData, event)
}

// enqueue refuses a second run for a project while one is in flight or
// already queued.
func (s *Server) enqueue(c *fiber.Ctx, projectID uuid.UUID, jobType consts.JobType, event shared.Event) error {
	if s.locks.Busy(projectID) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "a run for this project is already in flight"})
	}
	pending, err := s.jobs.HasPendingForProject(c.Context(), projectID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	if pending {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "a run for this project is already queued"})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	jobID, err := s.jobs.EnqueueJob(c.Context(), db.Job{
		ProjectID: projectID,
		Type:      jobType,
		Payload:   payload,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.EnqueueResponse{JobID: jobID})
}
