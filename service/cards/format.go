package cards

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// FormatAmount renders a token or SOL amount compactly: 1.2B, 3.4M, 5.6K,
// 12.34 for values >= 1 and four decimals below that.
func FormatAmount(n float64) string {
	switch {
	case n == 0 || math.IsNaN(n):
		return "0"
	case n >= 1e9:
		return strconv.FormatFloat(n/1e9, 'f', 1, 64) + "B"
	case n >= 1e6:
		return strconv.FormatFloat(n/1e6, 'f', 1, 64) + "M"
	case n >= 1e3:
		return strconv.FormatFloat(n/1e3, 'f', 1, 64) + "K"
	case n >= 1:
		return strconv.FormatFloat(n, 'f', 2, 64)
	default:
		return strconv.FormatFloat(n, 'f', 4, 64)
	}
}

// TimeAgo renders the age of an epoch-seconds timestamp relative to now as
// 5m, 3h, 2d, 1w or 4mo.
func TimeAgo(ts int64, now time.Time) string {
	d := float64(now.Unix() - ts)
	switch {
	case d < 3600:
		return fmt.Sprintf("%dm", int(math.Floor(d/60)))
	case d < 86400:
		return fmt.Sprintf("%dh", int(math.Floor(d/3600)))
	case d < 604800:
		return fmt.Sprintf("%dd", int(math.Floor(d/86400)))
	case d < 2592000:
		return fmt.Sprintf("%dw", int(math.Floor(d/604800)))
	default:
		return fmt.Sprintf("%dmo", int(math.Floor(d/2592000)))
	}
}

var romanMonths = [12]string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI", "XII"}

// FormatDate renders an epoch-seconds timestamp as roman-month.day.year in
// UTC, e.g. XII.25.2024.
func FormatDate(ts int64) string {
	t := time.Unix(ts, 0).UTC()
	return fmt.Sprintf("%s.%d.%d", romanMonths[t.Month()-1], t.Day(), t.Year())
}

// ShortSignature renders a signature as its first five and last four
// characters.
func ShortSignature(sig string) string {
	return head(sig, 5) + "..." + tail(sig, 4)
}

// UserFor derives the display identity for a wallet address.
func UserFor(wallet string) User {
	return User{
		Name: head(wallet, 8) + ".sol",
		Addr: head(wallet, 4) + "..." + tail(wallet, 4),
	}
}
