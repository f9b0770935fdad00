package email

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/teamhub/notification-service/internal/model"
)

// Message is one outbound email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTML     string
	Text     string
	Priority model.Priority
}

// Mailer sends a rendered message and returns the provider message id.
type Mailer interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	PoolSize   int
	MaxPerConn int
}

type pooledConn struct {
	sc   gomail.SendCloser
	sent int
}

// SMTPMailer sends through a bounded pool of SMTP connections, shared by
// immediate and digest sends. Connections are recycled after MaxPerConn
// messages; callers queue on the pool rather than opening unbounded
// connections.
type SMTPMailer struct {
	dialer     *gomail.Dialer
	from       string
	idle       chan *pooledConn
	sem        chan struct{}
	maxPerConn int
}

func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 5
	}
	maxPerConn := cfg.MaxPerConn
	if maxPerConn <= 0 {
		maxPerConn = 100
	}
	return &SMTPMailer{
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:       cfg.From,
		idle:       make(chan *pooledConn, poolSize),
		sem:        make(chan struct{}, poolSize),
		maxPerConn: maxPerConn,
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg *Message) (string, error) {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetAddressHeader("To", msg.To, msg.ToName)
	gm.SetHeader("Subject", msg.Subject)

	messageID := fmt.Sprintf("<%s@teamhub>", uuid.NewString())
	gm.SetHeader("Message-ID", messageID)

	if msg.Priority == model.PriorityUrgent {
		gm.SetHeader("X-Priority", "1 (Highest)")
		gm.SetHeader("Importance", "high")
	} else {
		gm.SetHeader("X-Priority", "3 (Normal)")
	}

	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}

	conn, err := m.acquire(ctx)
	if err != nil {
		return "", err
	}

	sendErr := gomail.Send(conn.sc, gm)
	m.release(conn, sendErr)
	if sendErr != nil {
		return "", fmt.Errorf("smtp send failed: %w", sendErr)
	}
	return messageID, nil
}

func (m *SMTPMailer) acquire(ctx context.Context) (*pooledConn, error) {
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case conn := <-m.idle:
		return conn, nil
	default:
	}

	sc, err := m.dialer.Dial()
	if err != nil {
		<-m.sem
		return nil, fmt.Errorf("smtp dial failed: %w", err)
	}
	return &pooledConn{sc: sc}, nil
}

func (m *SMTPMailer) release(conn *pooledConn, sendErr error) {
	defer func() { <-m.sem }()

	conn.sent++
	if sendErr != nil || conn.sent >= m.maxPerConn {
		conn.sc.Close()
		return
	}

	select {
	case m.idle <- conn:
	default:
		conn.sc.Close()
	}
}

// Close drains any idle connections.
func (m *SMTPMailer) Close() error {
	for {
		select {
		case conn := <-m.idle:
			conn.sc.Close()
		default:
			return nil
		}
	}
}
