// Package badges awards milestone badges and a rank from a donor's donation
// statistics. Badges are recomputed from scratch on every call.
package badges

import (
	"math"
	"time"

	"bloodzy/backend/services/stats"
)

// ID names a badge.
type ID string

const (
	FirstDonation   ID = "first_donation"
	FiveDonations   ID = "five_donations"
	TenDonations    ID = "ten_donations"
	TwentyDonations ID = "twenty_donations"
	FiftyDonations  ID = "fifty_donations"
	OneLiter        ID = "one_liter"
	TwoLiters       ID = "two_liters"
	Consistent      ID = "consistent"
	ActiveMember    ID = "active_member"
	Mentor          ID = "mentor"
)

// Thresholds behind the catalog.
const (
	ConsistentMaxAvgDays  = 80
	ActiveMemberMonths    = 6
	ActiveMemberDonations = 3
	MentorReferrals       = 5
)

// UserContext is the account data some badges depend on.
type UserContext struct {
	CreatedAt     time.Time
	ReferredCount int
}

// Badge is a catalog entry.
type Badge struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`

	earned   func(s stats.Statistics, u UserContext, now time.Time) bool
	progress func(s stats.Statistics, u UserContext) Progress
}

// Progress measures how close a donor is to a badge.
type Progress struct {
	Current    int `json:"current"`
	Target     int `json:"target"`
	Percentage int `json:"percentage"`
}

// Milestone is the next badge to earn.
type Milestone struct {
	Badge    Badge    `json:"badge"`
	Progress Progress `json:"progress"`
}

// Result is the outcome of Evaluate.
type Result struct {
	Earned []Badge    `json:"earned"`
	Next   *Milestone `json:"next"`
	Rank   string     `json:"rank"`
}

func donations(n int) func(stats.Statistics, UserContext, time.Time) bool {
	return func(s stats.Statistics, _ UserContext, _ time.Time) bool { return s.TotalDonations >= n }
}

func volume(ml int) func(stats.Statistics, UserContext, time.Time) bool {
	return func(s stats.Statistics, _ UserContext, _ time.Time) bool { return s.TotalBloodCollectedMl >= ml }
}

func donationProgress(target int) func(stats.Statistics, UserContext) Progress {
	return func(s stats.Statistics, _ UserContext) Progress { return clamp(s.TotalDonations, target) }
}

func volumeProgress(target int) func(stats.Statistics, UserContext) Progress {
	return func(s stats.Statistics, _ UserContext) Progress { return clamp(s.TotalBloodCollectedMl, target) }
}

func noProgress(stats.Statistics, UserContext) Progress {
	return Progress{Current: 0, Target: 1, Percentage: 0}
}

// Catalog lists every badge in display order.
var Catalog = []Badge{
	{ID: FirstDonation, Name: "First Drop", Description: "Completed your first blood donation", Icon: "🩸",
		earned: donations(1), progress: donationProgress(1)},
	{ID: FiveDonations, Name: "Regular Donor", Description: "Completed 5 blood donations", Icon: "🎖️",
		earned: donations(5), progress: donationProgress(5)},
	{ID: TenDonations, Name: "Dedicated Hero", Description: "Completed 10 blood donations", Icon: "⭐",
		earned: donations(10), progress: donationProgress(10)},
	{ID: TwentyDonations, Name: "Lifesaver", Description: "Completed 20 blood donations", Icon: "🏆",
		earned: donations(20), progress: donationProgress(20)},
	{ID: FiftyDonations, Name: "Legend", Description: "Completed 50 blood donations", Icon: "👑",
		earned: donations(50), progress: donationProgress(50)},
	{ID: OneLiter, Name: "Gallon Giver", Description: "Donated 1 liter (1000 ml) of blood", Icon: "🥤",
		earned: volume(1000), progress: volumeProgress(1000)},
	{ID: TwoLiters, Name: "Double Impact", Description: "Donated 2 liters (2000 ml) of blood", Icon: "🎯",
		earned: volume(2000), progress: volumeProgress(2000)},
	{ID: Consistent, Name: "Consistently Giving", Description: "Donated regularly with at most 80 days between donations", Icon: "📈",
		earned: func(s stats.Statistics, _ UserContext, _ time.Time) bool {
			avg := s.AverageDaysBetweenDonations
			return avg > 0 && avg <= ConsistentMaxAvgDays
		},
		progress: noProgress},
	{ID: ActiveMember, Name: "Active Member", Description: "Member for 6 months with at least 3 donations", Icon: "✨",
		earned: func(s stats.Statistics, u UserContext, now time.Time) bool {
			if u.CreatedAt.IsZero() {
				return false
			}
			return !u.CreatedAt.After(now.AddDate(0, -ActiveMemberMonths, 0)) && s.TotalDonations >= ActiveMemberDonations
		},
		progress: noProgress},
	{ID: Mentor, Name: "Mentor", Description: "Helped recruit 5 new donors", Icon: "👨‍🏫",
		earned: func(_ stats.Statistics, u UserContext, _ time.Time) bool { return u.ReferredCount >= MentorReferrals },
		progress: func(_ stats.Statistics, u UserContext) Progress { return clamp(u.ReferredCount, MentorReferrals) }},
}

// Progression is the order in which the next milestone is chosen.
var Progression = []ID{
	FirstDonation, FiveDonations, Consistent, TenDonations, OneLiter,
	TwentyDonations, TwoLiters, FiftyDonations, ActiveMember, Mentor,
}

// Lookup returns the catalog entry for id.
func Lookup(id ID) (Badge, bool) {
	for _, b := range Catalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// Evaluate returns every badge currently earned, the next milestone in
// progression order and the resulting rank. Next is nil once every badge is
// earned.
func Evaluate(s stats.Statistics, u UserContext, now time.Time) Result {
	res := Result{Earned: []Badge{}}
	have := make(map[ID]bool, len(Catalog))
	for _, b := range Catalog {
		if b.earned(s, u, now) {
			res.Earned = append(res.Earned, b)
			have[b.ID] = true
		}
	}
	for _, id := range Progression {
		if have[id] {
			continue
		}
		b, ok := Lookup(id)
		if !ok {
			continue
		}
		res.Next = &Milestone{Badge: b, Progress: b.progress(s, u)}
		break
	}
	res.Rank = RankFor(len(res.Earned))
	return res
}

// Ranks from lowest to highest.
const (
	Newcomer = "Newcomer"
	Bronze   = "Bronze"
	Silver   = "Silver"
	Gold     = "Gold"
	Platinum = "Platinum"
	Diamond  = "Diamond"
)

// RankFor maps an earned-badge count to a rank.
func RankFor(n int) string {
	switch {
	case n <= 0:
		return Newcomer
	case n <= 2:
		return Bronze
	case n <= 4:
		return Silver
	case n <= 6:
		return Gold
	case n <= 8:
		return Platinum
	default:
		return Diamond
	}
}

func clamp(current, target int) Progress {
	if current < 0 {
		current = 0
	}
	if current > target {
		current = target
	}
	return Progress{
		Current:    current,
		Target:     target,
		Percentage: int(math.Round(float64(current) / float64(target) * 100)),
	}
}
