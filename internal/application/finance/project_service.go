package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/realestate"
	"github.com/immo/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProjectService handles projects and their unit capacities
type ProjectService struct {
	repos          Repositories
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(repos Repositories, txScope TransactionScope, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		repos:   repos,
		txScope: txScope,
		logger:  logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ProjectService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateProject creates a new project
func (s *ProjectService) CreateProject(ctx context.Context, req CreateProjectRequest) (*ProjectResponse, error) {
	project, err := realestate.NewProject(req.Name, req.Location, req.Surface, req.Capacity)
	if err != nil {
		return nil, err
	}
	project.Description = req.Description

	if err := s.repos.Projects.Save(ctx, project); err != nil {
		logRejection(s.logger, "create_project", err, zap.String("name", req.Name))
		return nil, err
	}

	s.publishProjectEvents(ctx, project)
	s.logger.Info("project created", zap.String("project_id", project.ID.String()), zap.String("name", project.Name))
	return toProjectResponse(project), nil
}

// GetProject retrieves a project by ID
func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*ProjectResponse, error) {
	project, err := s.repos.Projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProjectResponse(project), nil
}

// ListProjects lists projects with pagination
func (s *ProjectService) ListProjects(ctx context.Context, filter shared.Filter) ([]ProjectResponse, int64, error) {
	projects, total, err := s.repos.Projects.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProjectResponse, len(projects))
	for i := range projects {
		out[i] = *toProjectResponse(&projects[i])
	}
	return out, total, nil
}

// UpdateProject changes the descriptive fields of a project
func (s *ProjectService) UpdateProject(ctx context.Context, req UpdateProjectRequest) (*ProjectResponse, error) {
	var project *realestate.Project
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.Projects().FindByIDForUpdate(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		if err := p.UpdateDetails(req.Name, req.Location, req.Description, req.Surface); err != nil {
			return err
		}
		if err := repos.Projects().SaveWithLock(ctx, p); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		logRejection(s.logger, "update_project", err, zap.String("project_id", req.ProjectID.String()))
		return nil, err
	}
	return toProjectResponse(project), nil
}

// UpdateCapacity changes the number of units of one category. The project row
// stays locked while active sales are counted, so a concurrent sale cannot
// slip under a reduced capacity.
func (s *ProjectService) UpdateCapacity(ctx context.Context, req UpdateCapacityRequest) (*ProjectResponse, error) {
	var project *realestate.Project
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.Projects().FindByIDForUpdate(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		sold, err := repos.Sales().CountActiveByCategory(ctx, p.ID, req.Category)
		if err != nil {
			return err
		}

		version := p.GetVersion()
		if err := p.ChangeCapacity(req.Category, req.NewCapacity, sold); err != nil {
			return err
		}
		if p.GetVersion() != version {
			if err := repos.Projects().SaveWithLock(ctx, p); err != nil {
				return err
			}
		}
		project = p
		return nil
	})
	if err != nil {
		logRejection(s.logger, "update_capacity", err,
			zap.String("project_id", req.ProjectID.String()),
			zap.String("category", string(req.Category)),
			zap.Int("requested", req.NewCapacity),
		)
		return nil, err
	}

	s.publishProjectEvents(ctx, project)
	s.logger.Info("project capacity updated",
		zap.String("project_id", project.ID.String()),
		zap.String("category", string(req.Category)),
		zap.Int("capacity", project.Capacity(req.Category)),
	)
	return toProjectResponse(project), nil
}

func (s *ProjectService) publishProjectEvents(ctx context.Context, project *realestate.Project) {
	publishEvents(ctx, s.eventPublisher, s.logger, project.PullDomainEvents())
}
