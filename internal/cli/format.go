package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"wearrelay/pkg/types"
)

func relTime(unix int64, now time.Time) string {
	return humanize.RelTime(time.Unix(unix, 0), now, "ago", "from now")
}

// writeStatus renders a StatusResponse for terminals; times are relative to now.
func writeStatus(w io.Writer, st types.StatusResponse, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	link := "no vehicle link"
	if st.Connected {
		link = "connected"
	}
	fmt.Fprintf(tw, "State:\t%s (%s)\n", st.State, link)
	if st.PendingActions > 0 {
		fmt.Fprintf(tw, "Pending:\t%d [%s]\n", st.PendingActions, strings.Join(st.Pending, ", "))
	} else {
		fmt.Fprintf(tw, "Pending:\tnone\n")
	}
	fmt.Fprintf(tw, "Companions:\t%d\n", st.Companions)
	if st.WatchdogDeadline > 0 {
		fmt.Fprintf(tw, "Watchdog:\t%ds idle timeout, next check %s\n", st.WatchdogTimeoutSeconds, relTime(st.WatchdogDeadline, now))
	} else {
		fmt.Fprintf(tw, "Watchdog:\t%ds idle timeout, not armed\n", st.WatchdogTimeoutSeconds)
	}
	if st.LastEvent != "" {
		fmt.Fprintf(tw, "Last event:\t%s, %s\n", st.LastEvent, relTime(st.LastEventAt, now))
	}
	if st.StartedAt > 0 {
		fmt.Fprintf(tw, "Started:\t%s\n", relTime(st.StartedAt, now))
	}
	_ = tw.Flush()
}

func writeDevices(w io.Writer, devices []types.BluetoothDevice) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "no paired devices")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tNAME\tCONNECTED")
	for _, d := range devices {
		fmt.Fprintf(tw, "%s\t%s\t%t\n", d.Address, d.Name, d.Connected)
	}
	_ = tw.Flush()
}
