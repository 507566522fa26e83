package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
	"time"
)

const DefaultSocketPath = "/tmp/voxtalk.sock"

type ControlMessage struct {
	Cmd string `json:"cmd"`
}

type ControlReply struct {
	OK      bool   `json:"ok"`
	Active  bool   `json:"active"`
	Turns   int    `json:"turns"`
	Session string `json:"session,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Server struct {
	ln   net.Listener
	path string
	wg   sync.WaitGroup
}

// StartServer listens on a unix socket and answers each connection's single
// command with handler's reply.
func StartServer(path string, handler func(ControlMessage) ControlReply) (*Server, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{ln: ln, path: path}
	s.wg.Add(1)
	go s.accept(handler)

	return s, nil
}

func (s *Server) accept(handler func(ControlMessage) ControlReply) {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("Control accept failed", "err", err)
			continue
		}
		go handleConn(conn, handler)
	}
}

func (s *Server) Close() error {
	err := s.ln.Close()
	s.wg.Wait()
	os.Remove(s.path)
	return err
}

func handleConn(conn net.Conn, handler func(ControlMessage) ControlReply) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Debug("Bad control message", "err", err)
		return
	}

	if err := json.NewEncoder(conn).Encode(handler(msg)); err != nil {
		log.Debug("Failed to answer control message", "err", err)
	}
}

func SendCommand(path, cmd string) (ControlReply, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return ControlReply{}, err
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(ControlMessage{Cmd: cmd}); err != nil {
		return ControlReply{}, err
	}

	var reply ControlReply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return ControlReply{}, fmt.Errorf("read reply: %w", err)
	}
	if !reply.OK && reply.Error != "" {
		return reply, errors.New(reply.Error)
	}

	return reply, nil
}
