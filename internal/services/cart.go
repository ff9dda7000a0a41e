package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/diewo77/go-materiel/gate"
	"github.com/diewo77/go-materiel/internal/models"
	"github.com/diewo77/go-materiel/internal/notify"
	"github.com/diewo77/go-materiel/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddItemInput is one prospective request.
type AddItemInput struct {
	MaterielID  uint
	RequestType string
	Description *string
}

// SubmitResult reports a cart submission. Notified is false when the
// notice could not be delivered; the requests are stored either way.
type SubmitResult struct {
	BatchID  string           `json:"batch_id"`
	Requests []models.Request `json:"requests"`
	Notified bool             `json:"notified"`
}

type CartService struct {
	db         *gorm.DB
	gate       *gate.Gate[policy.Principal]
	log        *slog.Logger
	sender     notify.Sender
	notice     NoticeConfig
	newBatchID func() string
}

func NewCartService(db *gorm.DB, g *gate.Gate[policy.Principal], log *slog.Logger, sender notify.Sender, notice NoticeConfig) *CartService {
	return &CartService{
		db:         db,
		gate:       g,
		log:        log,
		sender:     sender,
		notice:     notice,
		newBatchID: uuid.NewString,
	}
}

// GetOrCreate returns p's cart, creating it on first use. Concurrent calls
// for the same user converge on a single row.
func (s *CartService) GetOrCreate(ctx context.Context, p policy.Principal) (*models.Cart, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionView, string(policy.KindCart), nil); err != nil {
		return nil, err
	}
	return getOrCreateCart(s.db.WithContext(ctx), p.ID)
}

func getOrCreateCart(db *gorm.DB, userID uint) (*models.Cart, error) {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.Cart{UserID: userID}).Error
	if err != nil {
		return nil, err
	}
	var cart models.Cart
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Read returns p's cart with its items. Items whose materiel no longer
// exists are left out.
func (s *CartService) Read(ctx context.Context, p policy.Principal) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, p)
	if err != nil {
		return nil, err
	}
	var items []models.CartItem
	err = s.db.WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Preload("Materiel.MaterialType").
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	cart.Items = make([]models.CartItem, 0, len(items))
	for _, it := range items {
		if it.Materiel == nil {
			s.log.WarnContext(ctx, "cart item references a missing materiel",
				slog.Uint64("cart_item_id", uint64(it.ID)),
				slog.Uint64("materiel_id", uint64(it.MaterielID)),
			)
			continue
		}
		cart.Items = append(cart.Items, it)
	}
	return cart, nil
}

// AddItem appends a prospective request on a materiel p can see.
func (s *CartService) AddItem(ctx context.Context, p policy.Principal, in AddItemInput) (*models.CartItem, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionCreate, string(policy.KindCart), nil); err != nil {
		return nil, err
	}
	rt, err := RequestInput{MaterielID: in.MaterielID, RequestType: in.RequestType}.parse()
	if err != nil {
		return nil, err
	}
	var item models.CartItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := fetchMateriel(tx, p, in.MaterielID)
		if err != nil {
			return err
		}
		cart, err := getOrCreateCart(tx, p.ID)
		if err != nil {
			return err
		}
		item = models.CartItem{
			CartID:      cart.ID,
			MaterielID:  m.ID,
			RequestType: rt,
			Description: in.Description,
		}
		return tx.Omit("Materiel").Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes an item of p's own cart.
func (s *CartService) RemoveItem(ctx context.Context, p policy.Principal, itemID uint) error {
	if err := authorize(ctx, s.gate, p, gate.ActionDelete, string(policy.KindCart), nil); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.CartItem
		err := tx.Select("cart_items.*").
			Joins("JOIN carts ON carts.id = cart_items.cart_id").
			Where("carts.user_id = ? AND cart_items.id = ?", p.ID, itemID).
			First(&item).Error
		if err != nil {
			return lookupErr(err, "cart_item", itemID)
		}
		return tx.Delete(&item).Error
	})
}

// Submit turns every item of p's cart into a request sharing one batch id
// and empties the cart, atomically. The notice is sent after commit.
func (s *CartService) Submit(ctx context.Context, p policy.Principal) (*SubmitResult, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionSubmit, string(policy.KindCart), nil); err != nil {
		return nil, err
	}
	var (
		res      SubmitResult
		username string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateCart(tx, p.ID)
		if err != nil {
			return err
		}
		// Concurrent submits of one cart queue here; the loser finds it empty.
		if err := lockForUpdate(tx).First(cart, cart.ID).Error; err != nil {
			return err
		}
		if err := authorize(ctx, s.gate, p, gate.ActionSubmit, string(policy.KindCart), cart); err != nil {
			return err
		}
		var items []models.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Preload("Materiel").Order("id").Find(&items).Error; err != nil {
			return err
		}
		batch := s.newBatchID()
		userID := p.ID
		reqs := make([]models.Request, 0, len(items))
		for _, it := range items {
			if it.Materiel == nil {
				continue
			}
			reqs = append(reqs, models.Request{
				BatchID:     batch,
				MaterielID:  it.MaterielID,
				UserID:      &userID,
				RequestType: it.RequestType,
				Status:      models.StatusEnAttente,
				Description: it.Description,
				Materiel:    it.Materiel,
			})
		}
		if len(reqs) == 0 {
			return fmt.Errorf("%w: cart empty", ErrInvalidState)
		}
		if err := tx.Omit("Materiel", "User").Create(&reqs).Error; err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		var u models.User
		if err := tx.Select("id", "username").First(&u, p.ID).Error; err != nil {
			return lookupErr(err, "user", p.ID)
		}
		username = u.Username
		res = SubmitResult{BatchID: batch, Requests: reqs}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cartSubmissions.Inc()
	for _, r := range res.Requests {
		requestsCreated.WithLabelValues("cart", string(r.RequestType)).Inc()
	}
	s.log.InfoContext(ctx, "cart submitted",
		slog.Uint64("user_id", uint64(p.ID)),
		slog.String("batch_id", res.BatchID),
		slog.Int("requests", len(res.Requests)),
	)

	res.Notified = s.notify(ctx, username, res)
	return &res, nil
}

func (s *CartService) notify(ctx context.Context, username string, res SubmitResult) bool {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notice.Timeout)
	defer cancel()
	body := BuildSummary(username, res.BatchID, res.Requests)
	if err := s.sender.Send(nctx, s.notice.To, s.notice.Subject, body); err != nil {
		notificationFailures.Inc()
		s.log.ErrorContext(ctx, "submission notice not sent",
			slog.String("batch_id", res.BatchID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// BuildSummary renders the plain-text notice of a submitted batch.
func BuildSummary(username, batchID string, reqs []models.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nouvelles demandes de matériel de %s (Lot: %s):\n\n", username, batchID)
	for _, r := range reqs {
		desc := "Aucune"
		if r.Description != nil && strings.TrimSpace(*r.Description) != "" {
			desc = *r.Description
		}
		fmt.Fprintf(&b, "- Type: %s, Matériel: %s, Description: %s\n", r.RequestType, r.Materiel.Reference(), desc)
	}
	return b.String()
}

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
// SQLite serialises writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
