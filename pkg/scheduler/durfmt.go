package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration renders an elapsed duration as "Xmin Ysec Zms",
// omitting leading zero components. Used for the elapsed-time suffix
// appended to terminal log messages.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	minutes := int64(d / time.Minute)
	seconds := int64((d % time.Minute) / time.Second)
	millis := int64((d % time.Second) / time.Millisecond)

	var b strings.Builder
	if minutes > 0 {
		fmt.Fprintf(&b, "%dmin ", minutes)
	}
	if seconds > 0 || minutes > 0 {
		fmt.Fprintf(&b, "%dsec ", seconds)
	}
	fmt.Fprintf(&b, "%dms", millis)

	return b.String()
}
