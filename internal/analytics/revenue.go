// Package analytics aggregates booking history into revenue patterns and
// actionable insights for cinema operators.
package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cinezone/cinezone-ai-service/internal/domain"
	"github.com/shopspring/decimal"
)

var dayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Trend labels for the recent revenue direction.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Patterns are the aggregate figures extracted from the booking history.
type Patterns struct {
	PeakHours          []int    `json:"peak_hours"`
	BestDays           []string `json:"best_days"`
	PopularGenres      []int    `json:"popular_genres"`
	AvgLeadTimeDays    float64  `json:"avg_lead_time_days"`
	RevenueTrend       string   `json:"revenue_trend"`
	AvgSeatsPerBooking float64  `json:"avg_seats_per_booking"`
}

// Analysis is the full result returned to the caller.
type Analysis struct {
	Insights           []string `json:"insights"`
	Patterns           Patterns `json:"patterns"`
	Recommendations    []string `json:"recommendations"`
	TotalRevenue       float64  `json:"total_revenue"`
	TotalBookings      int      `json:"total_bookings"`
	AverageTicketPrice float64  `json:"average_ticket_price"`
	SkippedRecords     int      `json:"skipped_records"`
}

// RevenueAnalyzer derives booking patterns and recommendation text. It is
// stateless; one instance serves concurrent requests.
type RevenueAnalyzer struct{}

func NewRevenueAnalyzer() *RevenueAnalyzer {
	return &RevenueAnalyzer{}
}

// AnalyzePatterns aggregates the given bookings. Records whose show datetime
// cannot be parsed are skipped and counted, never fatal.
func (a *RevenueAnalyzer) AnalyzePatterns(bookings []domain.Booking) Analysis {
	if len(bookings) == 0 {
		return Analysis{
			Insights: []string{"No data available for analysis"},
		}
	}

	var (
		hourRevenue  = map[int]decimal.Decimal{}
		dayRevenue   = map[int]decimal.Decimal{}
		genreCounts  = map[int]int{}
		dateRevenue  = map[string]decimal.Decimal{}
		dates        []string
		totalRevenue = decimal.Zero
		totalSeats   int
		leadDays     float64
		leadCount    int
		skipped      int
		valid        int
	)

	for _, b := range bookings {
		showsAt, err := domain.ParseTime(b.ShowsAt)
		if err != nil {
			skipped++
			continue
		}

		valid++
		price := decimal.NewFromFloat(b.TotalPrice)
		totalRevenue = totalRevenue.Add(price)
		totalSeats += b.SeatCount

		hour := showsAt.Hour()
		day := (int(showsAt.Weekday()) + 6) % 7
		hourRevenue[hour] = hourRevenue[hour].Add(price)
		dayRevenue[day] = dayRevenue[day].Add(price)

		date := showsAt.Format("2006-01-02")
		if _, ok := dateRevenue[date]; !ok {
			dates = append(dates, date)
		}
		dateRevenue[date] = dateRevenue[date].Add(price)

		for _, g := range b.GenreIDs {
			genreCounts[g]++
		}

		if bookedAt, err := domain.ParseTime(b.BookedAt); err == nil {
			leadDays += showsAt.Sub(bookedAt).Hours() / 24
			leadCount++
		}
	}

	if valid == 0 {
		return Analysis{
			Insights:       []string{"No data available for analysis"},
			SkippedRecords: skipped,
		}
	}

	patterns := Patterns{
		PeakHours:          topKeys(hourRevenue, 3),
		PopularGenres:      topCounts(genreCounts, 5),
		AvgSeatsPerBooking: round2(float64(totalSeats) / float64(valid)),
		RevenueTrend:       trend(dates, dateRevenue),
	}
	for _, d := range topKeys(dayRevenue, 3) {
		patterns.BestDays = append(patterns.BestDays, dayNames[d])
	}
	if leadCount > 0 {
		patterns.AvgLeadTimeDays = round1(leadDays / float64(leadCount))
	}

	insights := []string{
		fmt.Sprintf("Peak booking hours: %s", joinHours(patterns.PeakHours)),
		fmt.Sprintf("Best performing days: %s", strings.Join(patterns.BestDays, ", ")),
		fmt.Sprintf("Top genres: IDs %s", joinInts(patterns.PopularGenres, 3)),
		fmt.Sprintf("Average booking lead time: %.1f days", patterns.AvgLeadTimeDays),
		fmt.Sprintf("Revenue trend (last 7 days): %s", patterns.RevenueTrend),
		fmt.Sprintf("Average seats per booking: %.2f", patterns.AvgSeatsPerBooking),
	}

	total, _ := totalRevenue.Round(2).Float64()
	avgTicket, _ := totalRevenue.Div(decimal.NewFromInt(int64(valid))).Round(2).Float64()

	return Analysis{
		Insights:           insights,
		Patterns:           patterns,
		Recommendations:    recommendations(patterns),
		TotalRevenue:       total,
		TotalBookings:      valid,
		AverageTicketPrice: avgTicket,
		SkippedRecords:     skipped,
	}
}

func recommendations(p Patterns) []string {
	var recs []string

	if len(p.PeakHours) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Schedule more shows during peak hours (%s) to maximize revenue",
			joinHours(p.PeakHours[:min(2, len(p.PeakHours))])))
	}

	for _, d := range p.BestDays {
		if d == "Saturday" || d == "Sunday" {
			recs = append(recs, "Increase weekend show capacity - these are your highest revenue days")
			break
		}
	}

	if len(p.PopularGenres) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Prioritize movies in top-performing genres (IDs: %s)", joinInts(p.PopularGenres, 3)))
	}

	if p.AvgLeadTimeDays < 2 {
		recs = append(recs, "Consider advance promotions - most bookings are made close to showtime")
	}

	switch p.RevenueTrend {
	case TrendDecreasing:
		recs = append(recs, "Revenue declining - consider promotional campaigns or schedule adjustments")
	case TrendIncreasing:
		recs = append(recs, "Revenue growing - maintain current strategy and consider expanding capacity")
	}

	return recs
}

// trend compares consecutive daily revenues over the last week of data.
func trend(dates []string, dateRevenue map[string]decimal.Decimal) string {
	sort.Strings(dates)
	if len(dates) > 7 {
		dates = dates[len(dates)-7:]
	}
	if len(dates) < 2 {
		return TrendStable
	}

	var changeSum float64
	changes := 0
	for i := 1; i < len(dates); i++ {
		prev := dateRevenue[dates[i-1]]
		if prev.IsZero() {
			continue
		}
		cur := dateRevenue[dates[i]]
		change, _ := cur.Sub(prev).Div(prev).Float64()
		changeSum += change
		changes++
	}
	if changes == 0 {
		return TrendStable
	}

	avg := changeSum / float64(changes)
	switch {
	case avg > 0.05:
		return TrendIncreasing
	case avg < -0.05:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func topKeys(m map[int]decimal.Decimal, k int) []int {
	keys := make([]int, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]].Equal(m[keys[j]]) {
			return keys[i] < keys[j]
		}
		return m[keys[i]].GreaterThan(m[keys[j]])
	})

	if len(keys) > k {
		keys = keys[:k]
	}
	return keys
}

func topCounts(m map[int]int, k int) []int {
	keys := make([]int, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] == m[keys[j]] {
			return keys[i] < keys[j]
		}
		return m[keys[i]] > m[keys[j]]
	})

	if len(keys) > k {
		keys = keys[:k]
	}
	return keys
}

func joinHours(hours []int) string {
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = fmt.Sprintf("%d:00", h)
	}
	return strings.Join(parts, ", ")
}

func joinInts(vals []int, limit int) string {
	if len(vals) > limit {
		vals = vals[:limit]
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

func round1(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
