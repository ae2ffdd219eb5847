package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// MaxBuckets bounds the size of a single report
	MaxBuckets = 1000
	// TopProductsLimit is the length of the top products ranking
	TopProductsLimit = 5
	// RecentSalesLimit is the number of sales shown on the dashboard
	RecentSalesLimit = 5
)

// ReportService aggregates completed sales for reports and the dashboard
type ReportService interface {
	Report(ctx context.Context, from, to time.Time, granularity domain.Granularity) (*domain.Report, error)
	Dashboard(ctx context.Context, now time.Time) (*domain.Dashboard, error)
	Location() *time.Location
}

type reportService struct {
	store  repository.Store
	loc    *time.Location
	logger *zap.Logger
}

// NewReportService creates a new instance of ReportService. Buckets are cut
// at midnight in loc.
func NewReportService(store repository.Store, loc *time.Location, logger *zap.Logger) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{store: store, loc: loc, logger: logger}
}

func (s *reportService) Location() *time.Location {
	return s.loc
}

// Report covers the whole days from..to in the report time zone
func (s *reportService) Report(ctx context.Context, from, to time.Time, granularity domain.Granularity) (*domain.Report, error) {
	if granularity == "" {
		granularity = domain.GranularityDaily
	}

	start := startOfDay(from.In(s.loc))
	end := endOfDay(to.In(s.loc))

	issues := domain.NewValidationError()
	if !granularity.Valid() {
		issues.Add("unknown granularity %q", granularity)
	}
	if end.Before(start) {
		issues.Add("range end is before range start")
	} else if granularity.Valid() && len(bucketBounds(start, end, granularity)) > MaxBuckets {
		issues.Add("range spans more than %d buckets", MaxBuckets)
	}
	if err := issues.OrNil(); err != nil {
		return nil, err
	}

	sales, err := s.store.Repos().Sales.List(ctx, domain.SaleFilter{From: start, To: end})
	if err != nil {
		return nil, storeErr("list sales", err)
	}

	report := BuildReport(sales, start, end, granularity)
	return &report, nil
}

// Dashboard summarises today, the catalog and the last seven days
func (s *reportService) Dashboard(ctx context.Context, now time.Time) (*domain.Dashboard, error) {
	repos := s.store.Repos()
	now = now.In(s.loc)

	weekStart := startOfDay(now).AddDate(0, 0, -6)
	dayEnd := endOfDay(now)
	weekSales, err := repos.Sales.List(ctx, domain.SaleFilter{From: weekStart, To: dayEnd})
	if err != nil {
		return nil, storeErr("list sales", err)
	}
	week := BuildReport(weekSales, weekStart, dayEnd, domain.GranularityDaily)

	productCount, err := repos.Catalog.Count(ctx)
	if err != nil {
		return nil, storeErr("count catalog items", err)
	}

	lowStock, err := repos.Catalog.ListLowStock(ctx)
	if err != nil {
		return nil, storeErr("list low stock", err)
	}

	customers, err := repos.Sales.CountCustomers(ctx)
	if err != nil {
		return nil, storeErr("count customers", err)
	}

	recent, err := repos.Sales.List(ctx, domain.SaleFilter{Limit: RecentSalesLimit})
	if err != nil {
		return nil, storeErr("list recent sales", err)
	}

	return &domain.Dashboard{
		Today:         week.Buckets[len(week.Buckets)-1].SalesFigures,
		ProductCount:  productCount,
		LowStockCount: len(lowStock),
		LowStock:      lowStock,
		CustomerCount: customers,
		RecentSales:   recent,
		Last7Days:     week.Buckets,
	}, nil
}

// BuildReport aggregates every sale that falls within [start, end], whatever
// its status.
// Every bucket in range is present, zero-valued when idle. Sales are taken
// in chronological order so ranking ties keep first-seen order.
func BuildReport(sales []*domain.Sale, start, end time.Time, granularity domain.Granularity) domain.Report {
	ordered := make([]*domain.Sale, 0, len(sales))
	for _, sale := range sales {
		if sale.CreatedAt.Before(start) || sale.CreatedAt.After(end) {
			continue
		}
		ordered = append(ordered, sale)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	bounds := bucketBounds(start, end, granularity)
	buckets := make([]domain.Bucket, len(bounds))
	totals := make([]figures, len(bounds))
	for i, b := range bounds {
		buckets[i] = domain.Bucket{Label: bucketLabel(b[0], granularity), Start: b[0], End: b[1]}
	}

	var summary figures
	ranking := []domain.ProductRank{}
	rankIndex := map[string]int{}
	details := []domain.ProductDetail{}

	for _, sale := range ordered {
		at := sale.CreatedAt.In(start.Location())
		items := sale.ItemCount()

		summary.add(sale.FinalAmount, items)
		if i := findBucket(bounds, at); i >= 0 {
			totals[i].add(sale.FinalAmount, items)
		}

		for _, line := range sale.Lines {
			idx, ok := rankIndex[line.ItemName]
			if !ok {
				idx = len(ranking)
				rankIndex[line.ItemName] = idx
				ranking = append(ranking, domain.ProductRank{ItemName: line.ItemName, Revenue: decimal.Zero})
			}
			ranking[idx].Quantity += line.Quantity
			ranking[idx].Revenue = ranking[idx].Revenue.Add(line.LineTotal)

			details = append(details, domain.ProductDetail{
				SaleID:    sale.ID,
				ItemName:  line.ItemName,
				ItemSKU:   line.ItemSKU,
				Date:      at,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				Total:     line.LineTotal,
			})
		}
	}

	for i := range buckets {
		buckets[i].SalesFigures = totals[i].result()
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Revenue.GreaterThan(ranking[j].Revenue)
	})
	if len(ranking) > TopProductsLimit {
		ranking = ranking[:TopProductsLimit]
	}

	sort.SliceStable(details, func(i, j int) bool {
		return details[i].Date.After(details[j].Date)
	})

	return domain.Report{
		From:        start,
		To:          end,
		Granularity: granularity,
		Summary:     summary.result(),
		Buckets:     buckets,
		TopProducts: ranking,
		Products:    details,
	}
}

type figures struct {
	total decimal.Decimal
	count int
	items int
}

func (f *figures) add(amount decimal.Decimal, items int) {
	f.total = f.total.Add(amount)
	f.count++
	f.items += items
}

func (f figures) result() domain.SalesFigures {
	out := domain.SalesFigures{
		TotalSales:    f.total.Round(MoneyPlaces),
		Transactions:  f.count,
		ItemsSold:     f.items,
		AvgOrderValue: decimal.Zero,
	}
	if f.count > 0 {
		out.AvgOrderValue = f.total.Div(decimal.NewFromInt(int64(f.count))).Round(MoneyPlaces)
	}
	return out
}

// bucketBounds returns the inclusive [start, end] of every bucket that
// intersects the range. Weeks start on Sunday.
func bucketBounds(start, end time.Time, granularity domain.Granularity) [][2]time.Time {
	var bounds [][2]time.Time
	cursor := bucketStart(start, granularity)
	for !cursor.After(end) {
		next := nextBucket(cursor, granularity)
		bounds = append(bounds, [2]time.Time{cursor, next.Add(-time.Nanosecond)})
		cursor = next
		if len(bounds) > MaxBuckets {
			break
		}
	}
	return bounds
}

func bucketStart(t time.Time, granularity domain.Granularity) time.Time {
	day := startOfDay(t)
	switch granularity {
	case domain.GranularityWeekly:
		return day.AddDate(0, 0, -int(day.Weekday()))
	case domain.GranularityMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	}
	return day
}

func nextBucket(t time.Time, granularity domain.Granularity) time.Time {
	switch granularity {
	case domain.GranularityWeekly:
		return t.AddDate(0, 0, 7)
	case domain.GranularityMonthly:
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

func bucketLabel(t time.Time, granularity domain.Granularity) string {
	switch granularity {
	case domain.GranularityWeekly:
		return fmt.Sprintf("Week of %s", t.Format("Jan 02"))
	case domain.GranularityMonthly:
		return t.Format("Jan 2006")
	}
	return t.Format("Jan 02")
}

func findBucket(bounds [][2]time.Time, t time.Time) int {
	i := sort.Search(len(bounds), func(i int) bool {
		return !bounds[i][1].Before(t)
	})
	if i < len(bounds) && !t.Before(bounds[i][0]) {
		return i
	}
	return -1
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
