// Command mcpctl is a small operator tool for exercising an MC protocol
// 3E-frame PLC session from the command line: one subcommand for each
// batch read/write, remote-control, CPU-type, lock/unlock, echo and health
// operation (the random read/write operations have no subcommand), flags
// for host/port/plc-type/comm-type/timeout (§4.5, §3).
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/gomelsec/mc3e/mcp"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "mcpctl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("mcpctl", flag.ContinueOnError)
	host := fs.StringP("host", "H", "127.0.0.1", "PLC host or IP address")
	port := fs.IntP("port", "p", 5007, "PLC port")
	plcType := fs.String("plc-type", "Q", `PLC family: "Q", "L", "QnA", "iQ-L" or "iQ-R"`)
	commType := fs.String("comm-type", "binary", `wire encoding: "binary" or "ascii"`)
	verbose := fs.BoolP("verbose", "v", false, "log frame traffic at debug level")
	timeoutSec := fs.Int("timeout", 2, "socket timeout in seconds")

	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(fs)
		return fmt.Errorf("missing subcommand")
	}
	subcmd, subargs := rest[0], rest[1:]

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	client, err := mcp.New(*plcType, mcp.WithLogger(log), mcp.WithPasswordPrompt(promptPassword))
	if err != nil {
		return err
	}
	if *timeoutSec < 1 || *timeoutSec > 16384 {
		return fmt.Errorf("timeout must be from 1 to 16384 seconds, got %d", *timeoutSec)
	}
	ct := *commType
	// The session's socket timeout is timer_sec + 1 seconds.
	timerSec := uint16(*timeoutSec - 1)
	if err := client.SetAccessOptions(mcp.AccessOptions{CommType: &ct, TimerSec: &timerSec}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeoutSec+3)*time.Second)
	defer cancel()
	if err := client.Connect(ctx, *host, *port); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	return dispatch(ctx, client, subcmd, subargs)
}

func dispatch(ctx context.Context, c *mcp.Client, subcmd string, args []string) error {
	switch subcmd {
	case "read-words":
		if len(args) != 2 {
			return fmt.Errorf("usage: read-words <head-device> <size>")
		}
		size, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		values, err := c.BatchReadWordUnits(args[0], size)
		if err != nil {
			return err
		}
		fmt.Println(joinInts16(values))

	case "read-bits":
		if len(args) != 2 {
			return fmt.Errorf("usage: read-bits <head-device> <size>")
		}
		size, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		values, err := c.BatchReadBitUnits(args[0], size)
		if err != nil {
			return err
		}
		fmt.Println(joinInts(values))

	case "write-words":
		if len(args) < 2 {
			return fmt.Errorf("usage: write-words <head-device> <value>...")
		}
		values, err := parseInts16(args[1:])
		if err != nil {
			return err
		}
		return c.BatchWriteWordUnits(args[0], values)

	case "write-bits":
		if len(args) < 2 {
			return fmt.Errorf("usage: write-bits <head-device> <0|1>...")
		}
		values, err := parseInts(args[1:])
		if err != nil {
			return err
		}
		return c.BatchWriteBitUnits(args[0], values)

	case "run":
		return c.RemoteRun(0, false)
	case "stop":
		return c.RemoteStop()
	case "pause":
		return c.RemotePause(false)
	case "latch-clear":
		return c.RemoteLatchClear()
	case "reset":
		return c.RemoteReset(ctx, nil)
	case "cpu-type":
		name, code, err := c.ReadCPUType()
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", name, code)
	case "lock":
		var password string
		if len(args) > 0 {
			password = args[0]
		}
		return c.RemoteLock(password)
	case "unlock":
		var password string
		if len(args) > 0 {
			password = args[0]
		}
		return c.RemoteUnlock(password)
	case "echo":
		if len(args) != 1 {
			return fmt.Errorf("usage: echo <text>")
		}
		echoed, err := c.EchoTest(args[0])
		if err != nil {
			return err
		}
		fmt.Println(echoed)
	case "health":
		return c.HealthCheck()
	default:
		return fmt.Errorf("unknown subcommand %q", subcmd)
	}
	return nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func parseInts16(args []string) ([]int16, error) {
	out := make([]int16, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseInt(a, 10, 16)
		if err != nil {
			return nil, err
		}
		out = append(out, int16(v))
	}
	return out, nil
}

func parseInts(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func joinInts16(values []int16) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(int(v))
	}
	return strings.Join(parts, " ")
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "usage: mcpctl [flags] <subcommand> [args...]")
	fmt.Fprintln(os.Stderr, "subcommands: read-words read-bits write-words write-bits run stop pause latch-clear reset cpu-type lock unlock echo health")
	fs.PrintDefaults()
}
