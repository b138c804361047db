package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"scarastylus/host/client"
	"scarastylus/host/serial"
	"scarastylus/scara"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 9600, "Baud rate")
	timeout = flag.Duration("timeout", client.DefaultTimeout, "Acknowledgement timeout per command")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	conn, err := client.ConnectWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	// One-shot mode: run the arguments as a single command line
	if flag.NArg() > 0 {
		if err := execute(conn, flag.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Connected to %s\n", *device)
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		args, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		default:
			if err := execute(conn, args); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  right|down|left|up ... - Slide in each direction given, in order")
	fmt.Println("  raw <byte>             - Send a raw byte (decimal, 0x.. or a character)")
	fmt.Println("  timeout <duration>     - Set the acknowledgement timeout")
	fmt.Println("  help                   - Show this help message")
	fmt.Println("  quit/exit/q            - Exit the program")
	fmt.Println()
}

func execute(conn *client.Client, args []string) error {
	switch args[0] {
	case "raw":
		if len(args) != 2 {
			return fmt.Errorf("usage: raw <byte>")
		}
		b, err := parseByte(args[1])
		if err != nil {
			return err
		}
		return send(conn, b, fmt.Sprintf("raw %q", b))

	case "timeout":
		if len(args) != 2 {
			return fmt.Errorf("usage: timeout <duration>")
		}
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return err
		}
		*timeout = d
		return nil
	}

	for _, arg := range args {
		dir, ok := parseDirection(arg)
		if !ok {
			return fmt.Errorf("unknown command: %s (type 'help' for available commands)", arg)
		}
		if err := send(conn, dir.Byte(), "slide "+dir.String()); err != nil {
			return err
		}
	}
	return nil
}

func send(conn *client.Client, b byte, what string) error {
	start := time.Now()
	if err := conn.Send(b, *timeout); err != nil {
		return err
	}
	fmt.Printf("%s: ok (%v)\n", what, time.Since(start).Round(time.Millisecond))
	return nil
}

func parseDirection(s string) (scara.SlideDirection, bool) {
	for _, d := range scara.Directions {
		name := d.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:1]) {
			return d, true
		}
	}
	if len(s) == 1 {
		return scara.DirectionFromByte(s[0])
	}
	return 0, false
}

// parseByte reads a single character literally, anything longer as a number
func parseByte(s string) (byte, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", s)
	}
	return byte(v), nil
}
