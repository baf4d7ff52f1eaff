// Command facectl talks to a running watchface control port. With arguments
// it sends one command and prints the reply; without arguments it runs an
// interactive session. It shares the control protocol but starts no other
// services.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ziutek/telnet"
)

func main() {
	host := flag.String("host", "localhost", "control host")
	port := flag.Int("port", 7340, "control port")
	timeoutSec := flag.Int("timeout", 10, "dial and reply timeout in seconds")
	flag.Parse()

	timeout := time.Duration(*timeoutSec) * time.Second
	addr := net.JoinHostPort(*host, fmt.Sprintf("%d", *port))
	conn, err := telnet.DialTimeout("tcp", addr, timeout)
	if err != nil {
		log.Fatalf("facectl: dial %s: %v", addr, err)
	}
	defer conn.Close()

	if flag.NArg() > 0 {
		if err := runOneShot(conn, strings.Join(flag.Args(), " "), timeout); err != nil {
			log.Fatalf("facectl: %v", err)
		}
		return
	}
	if err := runInteractive(conn); err != nil && err != io.EOF {
		log.Fatalf("facectl: %v", err)
	}
}

// runOneShot sends a single command followed by BYE and streams every reply
// line until the server closes the session. The welcome line and the closing
// "bye" are suppressed so the output is just the command's reply.
func runOneShot(conn *telnet.Conn, command string, timeout time.Duration) error {
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}

	reader := bufio.NewReader(conn)
	// Welcome line arrives first.
	if _, err := reader.ReadString('\n'); err != nil {
		return fmt.Errorf("read welcome: %w", err)
	}

	if err := sendLine(conn, command); err != nil {
		return err
	}
	if err := sendLine(conn, "BYE"); err != nil {
		return err
	}

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			trimmed := strings.TrimRight(line, "\r\n")
			if trimmed != "bye" {
				fmt.Println(trimmed)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// runInteractive copies stdin to the server and replies to stdout until
// either side closes.
func runInteractive(conn *telnet.Conn) error {
	errCh := make(chan error, 2)

	go func() {
		_, err := io.Copy(os.Stdout, conn)
		errCh <- err
	}()
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := sendLine(conn, scanner.Text()); err != nil {
				errCh <- err
				return
			}
		}
		errCh <- scanner.Err()
	}()

	return <-errCh
}

func sendLine(conn *telnet.Conn, line string) error {
	if !strings.HasSuffix(line, "\n") {
		line += "\r\n"
	}
	_, err := conn.Write([]byte(line))
	return err
}
