// Package network lets the TLS listener answer plain HTTP requests with a
// redirect to the https URL of the same resource.
package network

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
)

// tlsHandshake is the record type byte opening every TLS client hello.
const tlsHandshake = 0x16

type redirectConn struct {
	net.Conn

	reader *bufio.Reader
	once   sync.Once
	err    error
}

// sniff answers the connection with a redirect if it does not start with a
// TLS handshake.
func (c *redirectConn) sniff() {
	first, err := c.reader.Peek(1)
	if err != nil {
		c.err = err
		return
	}
	if first[0] == tlsHandshake {
		return
	}

	c.err = io.EOF
	request, err := http.ReadRequest(c.reader)
	if err != nil {
		_ = c.Conn.Close()
		return
	}
	resp := http.Response{
		StatusCode: http.StatusTemporaryRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
		Close:      true,
	}
	resp.Header.Set("Location", fmt.Sprintf("https://%s%s", request.Host, request.RequestURI))
	_ = resp.Write(c.Conn)
	_ = c.Conn.Close()
}

func (c *redirectConn) Read(buf []byte) (int, error) {
	c.once.Do(c.sniff)
	if c.err != nil {
		return 0, c.err
	}
	return c.reader.Read(buf)
}

type redirectListener struct {
	net.Listener
}

// NewAutoHttpsListener wraps listener so that plain HTTP clients hitting
// the TLS port are redirected instead of failing the handshake.
func NewAutoHttpsListener(listener net.Listener) net.Listener {
	return &redirectListener{Listener: listener}
}

func (l *redirectListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &redirectConn{Conn: conn, reader: bufio.NewReader(conn)}, nil
}
