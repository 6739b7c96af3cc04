package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nexdrive/scheduler/internal/model"
	"go.uber.org/zap"
)

// ServiceInput новая услуга инструктора
type ServiceInput struct {
	Name            string  `json:"name" validate:"required,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
	DurationMinutes int     `json:"durationMinutes" validate:"required,min=15,max=480"`
	PriceCents      int     `json:"priceCents" validate:"required,gt=0"`
}

// CatalogService каталог услуг (типов занятий), которые студенты бронируют
type CatalogService struct {
	catalog   Catalog
	directory Directory
	audit     AuditEmitter
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewCatalogService(catalog Catalog, directory Directory, audit AuditEmitter, logger *zap.Logger) *CatalogService {
	if audit == nil {
		audit = nopAudit{}
	}
	return &CatalogService{
		catalog:   catalog,
		directory: directory,
		audit:     audit,
		validate:  validator.New(),
		logger:    logger,
	}
}

// ListServices активные услуги инструктора; uuid.Nil возвращает услуги всех инструкторов
func (s *CatalogService) ListServices(ctx context.Context, instructorID uuid.UUID) ([]*model.Service, error) {
	services, err := s.catalog.ListActiveServices(ctx, instructorID)
	if err != nil {
		return nil, storeErr("list services", err)
	}
	if services == nil {
		services = []*model.Service{}
	}
	return services, nil
}

// CreateService добавляет услугу от имени инструктора
func (s *CatalogService) CreateService(ctx context.Context, actor Actor, input ServiceInput) (*model.Service, error) {
	instructor, err := actingInstructor(ctx, s.directory, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}

	service := &model.Service{
		InstructorID:    instructor.ID,
		Name:            input.Name,
		DurationMinutes: input.DurationMinutes,
		PriceCents:      input.PriceCents,
		IsActive:        true,
	}
	if input.Description != nil {
		service.Description = *input.Description
	}

	if err := s.catalog.CreateService(ctx, service); err != nil {
		return nil, storeErr("create service", err)
	}

	actorID := actor.ProfileID
	s.audit.Emit(ctx, model.AuditEvent{
		ActorProfileID: &actorID,
		Action:         model.ActionServiceCreated,
		EntityType:     model.EntityService,
		EntityID:       service.ID,
		Payload: map[string]any{
			"name":            service.Name,
			"durationMinutes": service.DurationMinutes,
			"priceCents":      service.PriceCents,
		},
		Severity: model.SeverityInfo,
	})

	s.logger.Info("Service created",
		zap.String("service_id", service.ID.String()),
		zap.String("instructor_id", instructor.ID.String()),
		zap.String("name", service.Name),
		zap.Int("duration_minutes", service.DurationMinutes),
		zap.Int("price_cents", service.PriceCents))

	return service, nil
}
