// Package client is a thin put/get library over a stream connection to a
// forwarder, grounded on std/object/client_cmd.go's
// ExpressCommand/AttachCommandHandler shape (signed request out, validated
// response in) but trimmed to the two CLI verbs §6 names: put and get.
package client

import (
	"fmt"
	"net"
	"time"

	"github.com/Atsuko87/ccnx-sub001/face"
	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/sec"
)

// Client is a single connection to a forwarder's TCP face.
type Client struct {
	conn    net.Conn
	recvBuf []byte
}

// Dial connects to a forwarder listening at addr (host:port, §6's
// CCN_LOCAL_PORT).
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// Put signs payload as a Content Object named n and writes it to the
// forwarder. There is no protocol-level acknowledgment (§4.9's
// save_content returns nothing), so success here means only that the
// bytes were written to the connection.
func (c *Client) Put(n name.Name, payload []byte, freshness *uint64, signer sec.Signer) error {
	co := &msg.ContentObject{
		Name: n,
		SignedInfo: msg.SignedInfo{
			Timestamp:        time.Now(),
			Type:             msg.ContentTypeData,
			FreshnessSeconds: freshness,
			KeyLocator:       signer.KeyName(),
		},
		Payload:         payload,
		DigestAlgorithm: algorithmForSigType(signer.Type()),
	}
	sig, err := signer.Sign(co.SignedBytes())
	if err != nil {
		return fmt.Errorf("client: signing: %w", err)
	}
	co.Signature = sig

	wire, _ := co.Encode()
	if _, err := c.conn.Write(wire); err != nil {
		return fmt.Errorf("client: writing content object: %w", err)
	}
	return nil
}

// Get expresses an Interest for n and waits for the first satisfying
// Content Object, or returns an error on timeout.
func (c *Client) Get(n name.Name, timeout time.Duration) ([]byte, error) {
	it := &msg.Interest{
		Name:             n,
		Nonce:            msg.NewNonce(),
		AnswerOriginKind: msg.DefaultAnswerOriginKind,
	}
	lifetimeMs := uint64(timeout / time.Millisecond)
	it.LifetimeMillis = &lifetimeMs

	if _, err := c.conn.Write(it.Encode()); err != nil {
		return nil, fmt.Errorf("client: writing interest: %w", err)
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, 64*1024)
	for {
		frameLen, ok, err := face.ScanElement(c.recvBuf)
		if err != nil {
			return nil, fmt.Errorf("client: malformed reply: %w", err)
		}
		if ok {
			frame := c.recvBuf[:frameLen]
			c.recvBuf = c.recvBuf[frameLen:]
			co, consumed, _, err := msg.ParseContentObject(frame)
			if err == nil && consumed == len(frame) {
				return co.Payload, nil
			}
			continue // an Interest echo or unrelated frame; keep reading
		}

		nread, err := c.conn.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("client: waiting for reply: %w", err)
		}
		c.recvBuf = append(c.recvBuf, buf[:nread]...)
	}
}

func algorithmForSigType(t sec.SigType) string {
	switch t {
	case sec.SigTypeEd25519:
		return "ed25519"
	case sec.SigTypeHMACSHA256:
		return "hmac-sha256"
	default:
		return "sha256"
	}
}
