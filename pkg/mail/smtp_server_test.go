// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
)

// testSMTPServer is a minimal SMTP server on a random port. It only
// implements the commands the transport uses and records what it receives.
type testSMTPServer struct {
	host string
	port int

	// rejectRcpt makes every RCPT TO fail with 550.
	rejectRcpt bool

	ln net.Listener
	wg sync.WaitGroup

	mu       sync.Mutex
	sessions int
	mailFrom []string
	rcptTo   []string
	data     []string
}

func startTestSMTPServer(t *testing.T, rejectRcpt bool) *testSMTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := &testSMTPServer{
		host:       "127.0.0.1",
		port:       ln.Addr().(*net.TCPAddr).Port,
		rejectRcpt: rejectRcpt,
		ln:         ln,
	}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.stop)
	return s
}

func (s *testSMTPServer) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.sessions++
		s.mu.Unlock()
		s.handle(conn)
	}
}

func (s *testSMTPServer) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	fmt.Fprintf(conn, "220 localhost Test SMTP Service Ready\r\n")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
			fmt.Fprintf(conn, "250-localhost Hello\r\n250 OK\r\n")
		case strings.HasPrefix(line, "MAIL FROM:"):
			s.record(&s.mailFrom, line)
			fmt.Fprintf(conn, "250 OK\r\n")
		case strings.HasPrefix(line, "RCPT TO:"):
			if s.rejectRcpt {
				fmt.Fprintf(conn, "550 No such user here\r\n")
				continue
			}
			s.record(&s.rcptTo, line)
			fmt.Fprintf(conn, "250 OK\r\n")
		case strings.HasPrefix(line, "DATA"):
			fmt.Fprintf(conn, "354 End data with <CR><LF>.<CR><LF>\r\n")
			var b strings.Builder
			for {
				dline, derr := r.ReadString('\n')
				if derr != nil {
					return
				}
				if strings.TrimSpace(dline) == "." {
					break
				}
				b.WriteString(dline)
			}
			s.record(&s.data, b.String())
			fmt.Fprintf(conn, "250 OK: queued as 12345\r\n")
		case strings.HasPrefix(line, "QUIT"):
			fmt.Fprintf(conn, "221 Bye\r\n")
			return
		default:
			fmt.Fprintf(conn, "250 OK\r\n")
		}
	}
}

func (s *testSMTPServer) record(dst *[]string, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*dst = append(*dst, v)
}

func (s *testSMTPServer) snapshot() (sessions int, mailFrom, rcptTo, data []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions,
		append([]string(nil), s.mailFrom...),
		append([]string(nil), s.rcptTo...),
		append([]string(nil), s.data...)
}

func (s *testSMTPServer) stop() {
	_ = s.ln.Close()
	s.wg.Wait()
}
