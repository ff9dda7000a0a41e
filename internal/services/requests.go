package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/diewo77/go-materiel/gate"
	"github.com/diewo77/go-materiel/internal/models"
	"github.com/diewo77/go-materiel/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestInput describes a single request outside the cart flow.
type RequestInput struct {
	MaterielID  uint
	RequestType string
	Description *string
}

func (in RequestInput) parse() (models.RequestType, error) {
	if in.MaterielID == 0 {
		return "", invalidField("materiel_id", "must_be_positive")
	}
	t, err := models.ParseRequestType(in.RequestType)
	if err != nil {
		return "", invalidField("request_type", "invalid_value")
	}
	return t, nil
}

type RequestService struct {
	db         *gorm.DB
	gate       *gate.Gate[policy.Principal]
	log        *slog.Logger
	newBatchID func() string
}

func NewRequestService(db *gorm.DB, g *gate.Gate[policy.Principal], log *slog.Logger) *RequestService {
	return &RequestService{db: db, gate: g, log: log, newBatchID: uuid.NewString}
}

// List returns the requests visible to p, newest first.
func (s *RequestService) List(ctx context.Context, p policy.Principal) ([]models.Request, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionList, string(policy.KindRequest), nil); err != nil {
		return nil, err
	}
	var reqs []models.Request
	err := s.db.WithContext(ctx).
		Scopes(policy.Scope(p, policy.KindRequest)).
		Preload("Materiel.MaterialType").
		Preload("User").
		Order("requests.created_at DESC, requests.id DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (s *RequestService) Get(ctx context.Context, p policy.Principal, id uint) (*models.Request, error) {
	return s.fetch(s.db.WithContext(ctx).Preload("Materiel.MaterialType").Preload("User"), p, id)
}

func (s *RequestService) fetch(db *gorm.DB, p policy.Principal, id uint) (*models.Request, error) {
	var r models.Request
	if err := db.Scopes(policy.Scope(p, policy.KindRequest)).First(&r, id).Error; err != nil {
		return nil, lookupErr(err, "request", id)
	}
	return &r, nil
}

// Create records one request from p on a materiel p can see, in its own batch.
func (s *RequestService) Create(ctx context.Context, p policy.Principal, in RequestInput) (*models.Request, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionCreate, string(policy.KindRequest), nil); err != nil {
		return nil, err
	}
	rt, err := in.parse()
	if err != nil {
		return nil, err
	}
	userID := p.ID
	r := models.Request{
		BatchID:     s.newBatchID(),
		MaterielID:  in.MaterielID,
		UserID:      &userID,
		RequestType: rt,
		Status:      models.StatusEnAttente,
		Description: in.Description,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := fetchMateriel(tx, p, in.MaterielID); err != nil {
			return err
		}
		return tx.Omit("Materiel", "User").Create(&r).Error
	})
	if err != nil {
		return nil, err
	}
	requestsCreated.WithLabelValues("single", string(rt)).Inc()
	return &r, nil
}

// CreateDirect lets an admin file a request on behalf of the materiel's
// owner. The request gets a standalone batch.
func (s *RequestService) CreateDirect(ctx context.Context, p policy.Principal, in RequestInput) (*models.Request, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionCreate, policy.ResourceDirectRequest, nil); err != nil {
		return nil, err
	}
	rt, err := in.parse()
	if err != nil {
		return nil, err
	}
	var r models.Request
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Materiel
		if err := tx.First(&m, in.MaterielID).Error; err != nil {
			return lookupErr(err, "materiel", in.MaterielID)
		}
		if m.OwnerID == nil {
			return fmt.Errorf("%w: materiel %d has no owner", ErrInvalidState, m.ID)
		}
		r = models.Request{
			BatchID:     s.newBatchID(),
			MaterielID:  m.ID,
			UserID:      m.OwnerID,
			RequestType: rt,
			Status:      models.StatusEnAttente,
			Description: in.Description,
		}
		return tx.Omit("Materiel", "User").Create(&r).Error
	})
	if err != nil {
		return nil, err
	}
	requestsCreated.WithLabelValues("direct", string(rt)).Inc()
	s.log.InfoContext(ctx, "direct request created",
		slog.Uint64("request_id", uint64(r.ID)),
		slog.Uint64("materiel_id", uint64(r.MaterielID)),
		slog.Uint64("admin_id", uint64(p.ID)),
		slog.String("batch_id", r.BatchID),
	)
	return &r, nil
}

// UpdateStatus overwrites the status. Any status may follow any other.
func (s *RequestService) UpdateStatus(ctx context.Context, p policy.Principal, id uint, status string) (*models.Request, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionUpdate, string(policy.KindRequest), nil); err != nil {
		return nil, err
	}
	st, err := models.ParseRequestStatus(status)
	if err != nil {
		return nil, invalidField("status", "invalid_value")
	}
	var r models.Request
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, id).Error; err != nil {
			return lookupErr(err, "request", id)
		}
		return tx.Model(&r).Update("status", st).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, p, id)
}

// Delete removes a request owned by p, or any request for an admin.
func (s *RequestService) Delete(ctx context.Context, p policy.Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.fetch(tx, p, id)
		if err != nil {
			return err
		}
		if err := authorize(ctx, s.gate, p, gate.ActionDelete, string(policy.KindRequest), r); err != nil {
			return err
		}
		return tx.Delete(r).Error
	})
}
