package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
)

const (
	recentBookings = 6
	trailingMonths = 6
)

// DashboardService computes admin statistics straight from the stores on
// every call.
type DashboardService struct {
	bookings BookingStore
	payments PaymentStore
	users    UserStore
	now      func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(bookings BookingStore, payments PaymentStore, users UserStore) *DashboardService {
	return &DashboardService{bookings: bookings, payments: payments, users: users, now: utcNow}
}

// Stats gathers the overview. The monthly series only contains months that
// had bookings in the trailing window; empty months are not zero-filled.
func (s *DashboardService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	var (
		st  model.DashboardStats
		err error
	)

	counts := []struct {
		status model.BookingStatus
		dst    *int64
	}{
		{"", &st.TotalBookings},
		{model.BookingConfirmed, &st.ConfirmedBookings},
		{model.BookingPending, &st.PendingBookings},
		{model.BookingCancelled, &st.CancelledBookings},
	}
	for _, c := range counts {
		if *c.dst, err = s.bookings.Count(ctx, c.status); err != nil {
			return nil, fmt.Errorf("dashboard: %w", err)
		}
	}

	if st.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if st.TotalRevenue, err = s.payments.SumAmount(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if st.RecentBookings, err = s.bookings.List(ctx, model.BookingFilter{Limit: recentBookings}); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	since := s.now().AddDate(0, -trailingMonths, 0)
	if st.MonthlyBookings, err = s.bookings.MonthlyCounts(ctx, since); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	if st.RecentBookings == nil {
		st.RecentBookings = []model.Booking{}
	}
	if st.MonthlyBookings == nil {
		st.MonthlyBookings = []model.MonthlyCount{}
	}
	return &st, nil
}
