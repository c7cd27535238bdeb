package dto

import (
	"github.com/shopspring/decimal"

	"github.com/Additional-Code/tableside/internal/service/stats"
)

// DashboardResponse is the summary shown on the dashboard home.
type DashboardResponse struct {
	TotalOrdersToday int             `json:"total_orders_today"`
	TodaysRevenue    decimal.Decimal `json:"todays_revenue"`
	ActiveOrders     int             `json:"active_orders"`
	RecentOrders     []OrderResponse `json:"recent_orders"`
	UpcomingBookings int             `json:"upcoming_reservations"`
	AvailableTables  int             `json:"available_tables"`
	LowStockItems    int             `json:"low_stock_items"`
}

func NewDashboard(d *stats.Dashboard) DashboardResponse {
	return DashboardResponse{
		TotalOrdersToday: d.TotalOrdersToday,
		TodaysRevenue:    d.TodaysRevenue,
		ActiveOrders:     d.ActiveOrders,
		RecentOrders:     NewOrders(d.RecentOrders),
		UpcomingBookings: d.UpcomingBookings,
		AvailableTables:  d.AvailableTables,
		LowStockItems:    d.LowStockItems,
	}
}
