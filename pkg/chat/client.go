package chat

import (
	"dominicbreuker/lannet/pkg/discovery"
	"dominicbreuker/lannet/pkg/format"
	"io"
	"sync"
)

// Client is the hub.ClientHandler of a chat member. It prints messages and
// discovered servers.
type Client struct {
	printer

	left     chan struct{}
	leftOnce sync.Once

	mu      sync.Mutex
	servers []discovery.ServerInfo
}

// NewClient creates a client handler printing to out.
func NewClient(out io.Writer) *Client {
	return &Client{
		printer: printer{console: &console{out: out}},
		left:    make(chan struct{}),
	}
}

func (c *Client) OnServerInfo(info discovery.ServerInfo) {
	c.mu.Lock()
	c.servers = append(c.servers, info)
	c.mu.Unlock()

	c.console.printf("%s\t%s", info.Addr, format.Info(info.Info))
}

func (c *Client) OnLeftServer(reason string, forced bool) {
	switch {
	case reason != "":
		c.console.printf("* left the server: %s", reason)
	case forced:
		c.console.printf("* left the server")
	}
	c.leftOnce.Do(func() { close(c.left) })
}

// Left is closed once the client left its server.
func (c *Client) Left() <-chan struct{} {
	return c.left
}

// Servers returns the servers discovered so far.
func (c *Client) Servers() []discovery.ServerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]discovery.ServerInfo(nil), c.servers...)
}
