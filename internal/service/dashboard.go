package service

import (
	"context"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashTracer = otel.Tracer("service/dashboard")

// DashboardService composes the admin landing page from the other stores.
type DashboardService struct {
	profiles port.ProfileStore
	clients  *ClientService
	ads      port.AdStore
	logger   *zap.Logger
}

func NewDashboardService(profiles port.ProfileStore, clients *ClientService, ads port.AdStore, logger *zap.Logger) *DashboardService {
	return &DashboardService{profiles: profiles, clients: clients, ads: ads, logger: logger}
}

// AdminDashboard is the aggregate the admin landing page renders.
type AdminDashboard struct {
	UsersByRole   map[string]int         `json:"users_by_role"`
	PaymentStats  *domain.PaymentStats   `json:"payment_stats"`
	RecentClients []domain.ClientRecord  `json:"recent_clients"`
	PendingAds    []domain.Advertisement `json:"pending_ads"`
}

// GetAdminDashboard fans the four reads out concurrently and fails the whole
// aggregate on the first error.
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	ctx, span := dashTracer.Start(ctx, "DashboardService.GetAdminDashboard")
	defer span.End()

	dash := &AdminDashboard{UsersByRole: make(map[string]int)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.profiles.GetAllUsers(gctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			dash.UsersByRole[string(u.Role)]++
		}
		return nil
	})
	g.Go(func() error {
		stats, err := s.clients.GetPaymentStats(gctx)
		if err != nil {
			return err
		}
		dash.PaymentStats = stats
		return nil
	})
	g.Go(func() error {
		recent, err := s.clients.ListClients(gctx, "", "", 10)
		if err != nil {
			return err
		}
		dash.RecentClients = recent
		return nil
	})
	g.Go(func() error {
		pending, err := s.ads.GetAdsByStatus(gctx, domain.AdStatusPending)
		if err != nil {
			return err
		}
		dash.PendingAds = pending
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("admin dashboard aggregation failed", zap.Error(err))
		return nil, err
	}
	return dash, nil
}
