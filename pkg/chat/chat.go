// Package chat is the line-based chat application behind the lannet CLI. A
// server relays every line a member sends to all other members; clients
// print whatever arrives.
package chat

import (
	"dominicbreuker/lannet/pkg/codec"
	"dominicbreuker/lannet/pkg/hub"
	"fmt"
	"io"
	"sync"
)

// console serializes output from the dispatcher and the stdin goroutine.
type console struct {
	mu  sync.Mutex
	out io.Writer
}

func (c *console) printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", a...)
}

// printer renders every message type as one line.
type printer struct {
	console *console
	prefix  string
}

func (p printer) show(v any) {
	p.console.printf("%s%v", p.prefix, v)
}

func (p printer) ReceiveInt32(v int32)     { p.show(v) }
func (p printer) ReceiveChar(v uint16)     { p.show(string(rune(v))) }
func (p printer) ReceiveInt64(v int64)     { p.show(v) }
func (p printer) ReceiveFloat64(v float64) { p.show(v) }
func (p printer) ReceiveByte(v byte)       { p.show(v) }
func (p printer) ReceiveInt16(v int16)     { p.show(v) }
func (p printer) ReceiveFloat32(v float32) { p.show(v) }
func (p printer) ReceiveBool(v bool)       { p.show(v) }
func (p printer) ReceiveString(v string)   { p.show(v) }

func (p printer) ReceiveObject(o codec.Object) {
	v, err := o.Value()
	if err != nil {
		p.show(fmt.Sprintf("<object: %s>", err))
		return
	}
	p.show(v)
}

var _ hub.Receiver = printer{}
