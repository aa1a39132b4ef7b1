package command

import (
	"context"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// RegisterNetworkCommands registers ping and ipconfig.
func RegisterNetworkCommands(r *Registry) {
	r.RegisterGroup(GroupNetwork, NewPingCommand(), NewIpconfigCommand())
}

// NewPingCommand creates the ping command. Reachability is probed with TCP
// connects, which need no raw socket privileges.
func NewPingCommand() Command {
	return NewFunc(
		"ping",
		"Check that a host accepts TCP connections",
		"ping [-c count] [-p port] [-W timeout] host",
		func(fs *flag.FlagSet) {
			fs.Int("c", 4, "number of probes")
			fs.Int("p", 80, "TCP `port` to connect to")
			fs.Duration("W", 2*time.Second, "per-probe `timeout`")
		},
		func(inv *Invocation) int {
			host, ok := inv.Next()
			if !ok {
				return inv.Failf("missing host")
			}
			count, port, timeout := inv.IntFlag("c"), inv.IntFlag("p"), inv.DurationFlag("W")
			if count <= 0 || port <= 0 || port > 65535 || timeout <= 0 {
				return inv.Failf("invalid count, port or timeout")
			}

			addr := net.JoinHostPort(host, strconv.Itoa(port))
			_, _ = fmt.Fprintf(inv.Stdout, "PING %s (tcp)\n", addr)

			received := 0
			var total time.Duration
			for seq := 1; seq <= count; seq++ {
				rtt, err := probeTCP(inv.Context, addr, timeout)
				if err != nil {
					_, _ = fmt.Fprintf(inv.Stdout, "seq=%d error: %v\n", seq, err)
				} else {
					received++
					total += rtt
					_, _ = fmt.Fprintf(inv.Stdout, "seq=%d time=%.2f ms\n", seq, float64(rtt.Microseconds())/1000)
				}
				if inv.Context.Err() != nil {
					break
				}
				if seq < count {
					select {
					case <-inv.Context.Done():
					case <-time.After(time.Second):
					}
				}
			}

			_, _ = fmt.Fprintf(inv.Stdout, "%d probes, %d connected", count, received)
			if received > 0 {
				_, _ = fmt.Fprintf(inv.Stdout, ", avg %.2f ms", float64((total/time.Duration(received)).Microseconds())/1000)
			}
			_, _ = fmt.Fprintln(inv.Stdout)
			if received == 0 {
				return 1
			}
			return 0
		},
	)
}

func probeTCP(ctx context.Context, addr string, timeout time.Duration) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	var d net.Dialer
	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return 0, err
	}
	rtt := time.Since(start)
	_ = conn.Close()
	return rtt, nil
}

// NewIpconfigCommand creates the ipconfig command.
func NewIpconfigCommand() Command {
	return NewFunc(
		"ipconfig",
		"Show network interfaces",
		"ipconfig [-a]",
		func(fs *flag.FlagSet) {
			fs.Bool("a", false, "include interfaces that are down")
		},
		func(inv *Invocation) int {
			ifaces, err := psnet.InterfacesWithContext(inv.Context)
			if err != nil {
				return inv.Failf("interfaces: %v", err)
			}
			all := inv.BoolFlag("a")
			for _, iface := range ifaces {
				up := containsFold(iface.Flags, "up")
				if !up && !all {
					continue
				}
				_, _ = fmt.Fprintf(inv.Stdout, "%s: mtu %d <%s>\n", iface.Name, iface.MTU, strings.Join(iface.Flags, ","))
				if iface.HardwareAddr != "" {
					_, _ = fmt.Fprintf(inv.Stdout, "    ether %s\n", iface.HardwareAddr)
				}
				for _, a := range iface.Addrs {
					family := "inet"
					if strings.Contains(a.Addr, ":") {
						family = "inet6"
					}
					_, _ = fmt.Fprintf(inv.Stdout, "    %s %s\n", family, a.Addr)
				}
			}
			return 0
		},
	)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
