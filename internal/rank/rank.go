package rank

// Tier is a reward tier derived from lifetime transacted volume.
type Tier int

const (
	Bronze Tier = iota
	Silver
	Gold
	Platinum
)

// Volume thresholds and limits are minor units (centavos).
const (
	silverThreshold   = 200_000_00
	goldThreshold     = 500_000_00
	platinumThreshold = 1_000_000_00
)

// Limits groups the per-tier transaction caps and the monthly interest rate.
// Interest is expressed in basis points to keep arithmetic integral.
type Limits struct {
	Deposit    int64
	Withdraw   int64
	Send       int64
	InterestBP int64
}

var limitTable = map[Tier]Limits{
	Bronze:   {Deposit: 100_000_00, Withdraw: 100_000_00, Send: 100_000_00, InterestBP: 15},
	Silver:   {Deposit: 150_000_00, Withdraw: 150_000_00, Send: 150_000_00, InterestBP: 25},
	Gold:     {Deposit: 300_000_00, Withdraw: 300_000_00, Send: 300_000_00, InterestBP: 40},
	Platinum: {Deposit: 500_000_00, Withdraw: 500_000_00, Send: 500_000_00, InterestBP: 60},
}

// ForVolume maps lifetime transacted volume to its tier.
func ForVolume(totalTransacted int64) Tier {
	switch {
	case totalTransacted >= platinumThreshold:
		return Platinum
	case totalTransacted >= goldThreshold:
		return Gold
	case totalTransacted >= silverThreshold:
		return Silver
	default:
		return Bronze
	}
}

// Limits returns the limit table entry for the tier.
func (t Tier) Limits() Limits {
	if l, ok := limitTable[t]; ok {
		return l
	}
	return limitTable[Bronze]
}

// Interest computes the monthly interest earned on a balance at this tier.
func (t Tier) Interest(balance int64) int64 {
	return balance * t.Limits().InterestBP / 10_000
}

func (t Tier) String() string {
	switch t {
	case Silver:
		return "Silver"
	case Gold:
		return "Gold"
	case Platinum:
		return "Platinum"
	default:
		return "Bronze"
	}
}

// Parse converts a stored tier name back to its Tier. Unknown names fall
// back to Bronze so legacy rows never fail to load.
func Parse(name string) Tier {
	switch name {
	case "Silver":
		return Silver
	case "Gold":
		return Gold
	case "Platinum":
		return Platinum
	default:
		return Bronze
	}
}
