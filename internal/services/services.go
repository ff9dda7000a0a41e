// Package services implements the inventory and request-tracking operations.
// Every operation takes the acting policy.Principal; owned resources are
// always read through policy.Scope and re-checked with the gate before writes.
package services

import (
	"log/slog"
	"time"

	"github.com/diewo77/go-materiel/gate"
	"github.com/diewo77/go-materiel/internal/notify"
	"github.com/diewo77/go-materiel/internal/policy"
	"gorm.io/gorm"
)

// Deps are the collaborators shared by the services.
type Deps struct {
	DB     *gorm.DB
	Gate   *gate.Gate[policy.Principal]
	Log    *slog.Logger
	Sender notify.Sender
	Notice NoticeConfig
}

// NoticeConfig addresses the cart submission notice.
type NoticeConfig struct {
	To      string
	Subject string
	Timeout time.Duration
}

// Services groups one instance of every service.
type Services struct {
	Users         *UserService
	MaterialTypes *MaterialTypeService
	Localisations *LocalisationService
	Materiels     *MaterielService
	Requests      *RequestService
	Cart          *CartService
}

// New builds every service. A nil Gate or Log gets a default.
func New(d Deps) *Services {
	if d.Gate == nil {
		d.Gate = policy.NewGate()
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Sender == nil {
		d.Sender = notify.NewLogSender(d.Log)
	}
	if d.Notice.Timeout <= 0 {
		d.Notice.Timeout = 10 * time.Second
	}
	return &Services{
		Users:         &UserService{db: d.DB, gate: d.Gate, log: d.Log},
		MaterialTypes: &MaterialTypeService{db: d.DB, gate: d.Gate, log: d.Log},
		Localisations: &LocalisationService{db: d.DB, gate: d.Gate, log: d.Log},
		Materiels:     &MaterielService{db: d.DB, gate: d.Gate, log: d.Log},
		Requests:      NewRequestService(d.DB, d.Gate, d.Log),
		Cart:          NewCartService(d.DB, d.Gate, d.Log, d.Sender, d.Notice),
	}
}
