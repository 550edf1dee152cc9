package network

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return NewAutoHttpsListener(l)
}

func TestPlainHTTPIsRedirected(t *testing.T) {
	l := listen(t)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		_, _ = io.ReadAll(conn)
	}()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = io.WriteString(conn, "GET /api/points?type=x HTTP/1.1\r\nHost: mapa.example.org:5000\r\n\r\n")
	require.NoError(t, err)

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "https://mapa.example.org:5000/api/points?type=x", resp.Header.Get("Location"))
}

func TestTLSBytesPassThrough(t *testing.T) {
	l := listen(t)
	payload := []byte{tlsHandshake, 0x03, 0x01, 0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}
	received := make(chan []byte, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			received <- nil
			return
		}
		defer conn.Close()
		buf := make([]byte, len(payload))
		_, err = io.ReadFull(conn, buf)
		if err != nil {
			received <- nil
			return
		}
		received <- buf
	}()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, payload, <-received)
}
