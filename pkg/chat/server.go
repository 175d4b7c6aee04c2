package chat

import (
	"dominicbreuker/lannet/pkg/hub"
	"dominicbreuker/lannet/pkg/log"
	"fmt"
	"io"
	"sync"
)

// Server is the hub.ServerHandler of a chat room.
type Server struct {
	hub.BaseServerHandler

	info    []byte
	echo    bool
	console *console
	logger  *log.Logger

	mu  sync.Mutex
	srv *hub.Server
}

// NewServer creates a chat room advertising info. With echo set, members
// also get their own lines back.
func NewServer(info string, echo bool, out io.Writer, logger *log.Logger) *Server {
	return &Server{
		info:    []byte(info),
		echo:    echo,
		console: &console{out: out},
		logger:  logger,
	}
}

// Attach sets the server whose members are relayed to.
func (s *Server) Attach(srv *hub.Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.srv = srv
}

func (s *Server) AdvertisedInfo() []byte {
	return s.info
}

func (s *Server) NewReceiver(p *hub.Peer) hub.Receiver {
	return &member{
		printer: printer{console: s.console, prefix: fmt.Sprintf("[%s] ", p.RemoteAddr())},
		room:    s,
		peer:    p,
	}
}

func (s *Server) OnPostAuth(p *hub.Peer) {
	s.console.printf("* %s joined", p.RemoteAddr())
	s.broadcast(p, fmt.Sprintf("* %s joined", p.RemoteAddr()))
}

func (s *Server) OnDisconnect(p *hub.Peer, reason string, forced bool) {
	msg := fmt.Sprintf("* %s left", p.RemoteAddr())
	switch {
	case forced:
		msg += " (connection lost)"
	case reason != "":
		msg += fmt.Sprintf(" (%s)", reason)
	}
	s.console.printf("%s", msg)
	s.broadcast(p, msg)
}

// Say sends a line typed at the server console to every member.
func (s *Server) Say(line string) {
	s.broadcast(nil, "[server] "+line)
}

// broadcast sends line to every member except skip.
func (s *Server) broadcast(skip *hub.Peer, line string) {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return
	}

	for _, p := range srv.Connections() {
		if p == skip {
			continue
		}
		if err := p.Send(line); err != nil {
			s.logger.VerboseMsg("sending to %s: %s", p.RemoteAddr(), err)
		}
	}
}

// member receives the messages of one connected client.
type member struct {
	printer
	room *Server
	peer *hub.Peer
}

func (m *member) ReceiveString(v string) {
	m.show(v)

	line := fmt.Sprintf("[%s] %s", m.peer.RemoteAddr(), v)
	skip := m.peer
	if m.room.echo {
		skip = nil
	}
	m.room.broadcast(skip, line)
}
