package display

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes returns a human-readable IEC size (B, KiB, MiB, ...).
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatBytesWithSign prefixes with + or - for delta display (e.g. "- 1.2 MiB").
func FormatBytesWithSign(bytes int64) string {
	sign := ""
	if bytes > 0 {
		sign = "+ "
	} else if bytes < 0 {
		sign = "- "
		bytes = -bytes
	}
	return sign + FormatBytes(bytes)
}

// FormatBitrate returns a short label for a bitrate in bits per second
// (e.g. "192 kbps", "1.4 Mbps").
func FormatBitrate(bps int64) string {
	if bps <= 0 {
		return "unknown"
	}
	kbps := bps / 1000
	if kbps < 1000 {
		return fmt.Sprintf("%d kbps", kbps)
	}
	return fmt.Sprintf("%.1f Mbps", float64(kbps)/1000)
}

// FormatDuration renders seconds as m:ss.ss, or h:mm:ss.ss past an hour.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "unknown"
	}
	h := int(seconds) / 3600
	m := int(seconds) / 60 % 60
	s := seconds - float64(h*3600+m*60)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%05.2f", h, m, s)
	}
	return fmt.Sprintf("%d:%05.2f", m, s)
}

// FormatElapsed renders a wall-clock duration rounded to a tenth of a second.
func FormatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// ChannelLabel names common channel counts.
func ChannelLabel(n int) string {
	switch n {
	case 0:
		return "unknown"
	case 1:
		return "1 (mono)"
	case 2:
		return "2 (stereo)"
	case 6:
		return "6 (5.1)"
	case 8:
		return "8 (7.1)"
	}
	return fmt.Sprintf("%d", n)
}
