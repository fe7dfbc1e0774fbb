// Package publisher fans tracking snapshots out over NATS.
package publisher

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// KindHeader tells subscribers on a wildcard subject which snapshot type a
// message carries.
const KindHeader = "Snapshot-Kind"

const (
	KindTrip  = "trip"
	KindFleet = "fleet"
)

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

type NATSPublisher struct {
	nc          *nats.Conn
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
}

// NewNATSPublisher connects to url and publishes under prefix. It keeps
// reconnecting for as long as the process runs.
func NewNATSPublisher(url, prefix string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, connectOptions(m)...)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, prefix: subjectToken(prefix), logSubjects: logSubjects, metrics: m}, nil
}

func connectOptions(m PublisherMetrics) []nats.Option {
	connected := func(up bool, format string, args ...any) {
		if m != nil {
			m.NATSSetConnected(up)
		}
		log.Printf(format, args...)
	}
	return []nats.Option{
		nats.Name("train-tracker"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			connected(false, "nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			connected(true, "nats reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			connected(false, "nats connection closed")
		}),
	}
}

// Close flushes pending snapshots before closing the connection.
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		log.Printf("nats drain: %v", err)
	}
	p.nc.Close()
}

// TripSubject is <prefix>.trip.<orderID>.
func (p *NATSPublisher) TripSubject(orderID string) string {
	return Subject(p.prefix, KindTrip, orderID)
}

// FleetSubject is <prefix>.fleet.<trainID>.
func (p *NATSPublisher) FleetSubject(trainID string) string {
	return Subject(p.prefix, KindFleet, trainID)
}

func (p *NATSPublisher) PublishTrip(orderID string, snapshot any) error {
	return p.publish(KindTrip, p.TripSubject(orderID), snapshot)
}

func (p *NATSPublisher) PublishFleet(trainID string, snapshot any) error {
	return p.publish(KindFleet, p.FleetSubject(trainID), snapshot)
}

func (p *NATSPublisher) publish(kind, subject string, snapshot any) error {
	msg, err := encode(kind, subject, snapshot)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Printf("nats publish %s snapshot subject=%s", kind, subject)
	}
	start := time.Now()
	err = p.nc.PublishMsg(msg)
	if p.metrics == nil {
		return err
	}
	p.metrics.PublishObserve(time.Since(start))
	if err != nil {
		p.metrics.NATSPublishErrInc()
	} else {
		p.metrics.NATSPublishedInc()
	}
	return err
}

func encode(kind, subject string, snapshot any) (*nats.Msg, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	msg := nats.NewMsg(subject)
	msg.Header.Set(KindHeader, kind)
	msg.Data = data
	return msg, nil
}

// Subject joins sanitized tokens with dots.
func Subject(tokens ...string) string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = subjectToken(t)
	}
	return strings.Join(out, ".")
}

var tokenReplacer = strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")

// subjectToken makes s usable as a single NATS subject token.
func subjectToken(s string) string {
	s = tokenReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return "_"
	}
	return s
}
