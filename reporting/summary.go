package reporting

import (
	"context"

	"go-storefront/models"

	"golang.org/x/sync/errgroup"
)

// OrderTotals is the order-level part of the overview
type OrderTotals struct {
	NumOrders      int64   `bson:"numOrders"`
	TotalSales     float64 `bson:"totalSales"`
	AvgOrderValue  float64 `bson:"avgOrderValue"`
	TotalItemsSold int64   `bson:"totalItemsSold"`
	TotalShipping  float64 `bson:"totalShipping"`
	TotalTax       float64 `bson:"totalTax"`
}

// StatusCounts holds the paid and delivered order counts
type StatusCounts struct {
	PaidOrders      int64 `bson:"paidOrders"`
	DeliveredOrders int64 `bson:"deliveredOrders"`
}

// Overview is the headline section of the dashboard
type Overview struct {
	NumOrders       int64   `json:"numOrders"`
	TotalSales      float64 `json:"totalSales"`
	AvgOrderValue   float64 `json:"avgOrderValue"`
	TotalItemsSold  int64   `json:"totalItemsSold"`
	TotalShipping   float64 `json:"totalShipping"`
	TotalTax        float64 `json:"totalTax"`
	NumUsers        int64   `json:"numUsers"`
	PaidOrders      int64   `json:"paidOrders"`
	DeliveredOrders int64   `json:"deliveredOrders"`
}

// DailyOrders is one calendar date of order history
type DailyOrders struct {
	Date      string  `bson:"_id" json:"date"`
	Orders    int64   `bson:"orders" json:"orders"`
	Sales     float64 `bson:"sales" json:"sales"`
	ItemsSold int64   `bson:"itemsSold" json:"itemsSold"`
}

// CategoryRevenue is the units sold and revenue of one product category
type CategoryRevenue struct {
	Category string  `bson:"_id" json:"category"`
	Count    int64   `bson:"count" json:"count"`
	Revenue  float64 `bson:"revenue" json:"revenue"`
}

// Trends is the time and category breakdown of the dashboard
type Trends struct {
	DailyOrders       []DailyOrders     `json:"dailyOrders"`
	ProductCategories []CategoryRevenue `json:"productCategories"`
}

// Summary is the whole dashboard document
type Summary struct {
	Overview     Overview               `json:"overview"`
	Trends       Trends                 `json:"trends"`
	RecentOrders []models.OrderWithUser `json:"recentOrders"`
}

// Source runs the individual dashboard queries. A nil result with a nil error
// means the query matched nothing.
type Source interface {
	OrderTotals(ctx context.Context) (*OrderTotals, error)
	UserCount(ctx context.Context) (int64, error)
	DailyOrders(ctx context.Context) ([]DailyOrders, error)
	CategoryRevenue(ctx context.Context) ([]CategoryRevenue, error)
	StatusCounts(ctx context.Context) (*StatusCounts, error)
	RecentOrders(ctx context.Context, limit int) ([]models.OrderWithUser, error)
}

// Reporter assembles the dashboard summary from a Source
type Reporter struct {
	src Source
}

// NewReporter creates a Reporter
func NewReporter(src Source) *Reporter {
	return &Reporter{src: src}
}

// Summary runs the six queries concurrently and merges them. The first failure
// cancels the rest and is returned; there is no partial summary.
func (r *Reporter) Summary(ctx context.Context) (*Summary, error) {
	var (
		totals     *OrderTotals
		numUsers   int64
		daily      []DailyOrders
		categories []CategoryRevenue
		status     *StatusCounts
		recent     []models.OrderWithUser
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = r.src.OrderTotals(ctx)
		return err
	})
	g.Go(func() (err error) {
		numUsers, err = r.src.UserCount(ctx)
		return err
	})
	g.Go(func() (err error) {
		daily, err = r.src.DailyOrders(ctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = r.src.CategoryRevenue(ctx)
		return err
	})
	g.Go(func() (err error) {
		status, err = r.src.StatusCounts(ctx)
		return err
	})
	g.Go(func() (err error) {
		recent, err = r.src.RecentOrders(ctx, RecentOrdersLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merge(totals, numUsers, daily, categories, status, recent), nil
}

func merge(totals *OrderTotals, numUsers int64, daily []DailyOrders, categories []CategoryRevenue,
	status *StatusCounts, recent []models.OrderWithUser) *Summary {
	if totals == nil {
		totals = &OrderTotals{}
	}
	if status == nil {
		status = &StatusCounts{}
	}

	s := &Summary{
		Overview: Overview{
			NumOrders:       totals.NumOrders,
			TotalSales:      models.RoundCents(totals.TotalSales),
			AvgOrderValue:   models.RoundCents(totals.AvgOrderValue),
			TotalItemsSold:  totals.TotalItemsSold,
			TotalShipping:   models.RoundCents(totals.TotalShipping),
			TotalTax:        models.RoundCents(totals.TotalTax),
			NumUsers:        numUsers,
			PaidOrders:      status.PaidOrders,
			DeliveredOrders: status.DeliveredOrders,
		},
		Trends: Trends{
			DailyOrders:       make([]DailyOrders, 0, len(daily)),
			ProductCategories: make([]CategoryRevenue, 0, len(categories)),
		},
		RecentOrders: recent,
	}
	for _, d := range daily {
		d.Sales = models.RoundCents(d.Sales)
		s.Trends.DailyOrders = append(s.Trends.DailyOrders, d)
	}
	for _, c := range categories {
		c.Revenue = models.RoundCents(c.Revenue)
		s.Trends.ProductCategories = append(s.Trends.ProductCategories, c)
	}
	if s.RecentOrders == nil {
		s.RecentOrders = []models.OrderWithUser{}
	}
	return s
}
