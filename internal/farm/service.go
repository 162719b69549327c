package farm

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// ServiceError carries a dotted operation code alongside the underlying cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew       = "farm.service.new"
	opCreatePlot       = "farm.create_plot"
	opUpdatePlot       = "farm.update_plot"
	opDeletePlot       = "farm.delete_plot"
	opListPlots        = "farm.list_plots"
	opGetPlot          = "farm.get_plot"
	opCreateSection    = "farm.create_section"
	opUpdateSection    = "farm.update_section"
	opDeleteSection    = "farm.delete_section"
	opListSections     = "farm.list_sections"
	opGetSection       = "farm.get_section"
	opCreateTree       = "farm.create_tree"
	opRegrowTree       = "farm.regrow_tree"
	opUpdateTree       = "farm.update_tree"
	opAdjustFruitCount = "farm.adjust_fruit_count"
	opDeleteTree       = "farm.delete_tree"
	opListTrees        = "farm.list_trees"
	opGetTree          = "farm.get_tree"
	opAddTreeLog       = "farm.add_tree_log"
	opListTreeLogs     = "farm.list_tree_logs"
	opGetTreeLog       = "farm.get_tree_log"
	opAddCost          = "farm.add_cost"
	opListCosts        = "farm.list_costs"
	opDeleteCost       = "farm.delete_cost"
	opReference        = "farm.reference"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// IsNotFound reports whether err bottoms out in a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsConflict reports whether err is an exhausted allocation retry or a
// duplicate-code rejection.
func IsConflict(err error) bool {
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		return false
	}
	switch {
	case isUniqueViolation(serviceErr.err):
		return true
	case errors.Is(serviceErr.err, errAllocationExhausted):
		return true
	default:
		return false
	}
}

var errAllocationExhausted = errors.New("identifier allocation retries exhausted")

// IDProvider issues primary keys for new rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig wires the farm service dependencies.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service implements plot/section/tree record keeping over the relational store.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates the configuration and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

func (s *Service) newID(operation string) (string, error) {
	id, err := s.idProvider.NewID()
	if err != nil {
		s.logError(operation, "id_generation_failed", err)
		return "", newServiceError(operation, "id_generation_failed", err)
	}
	return id, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("farm service error", attrs...)
}
