// Package smtp implements a Postfix-style SMTP content filter: inbound
// messages are classified and re-injected with verdict headers stamped on.
package smtp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/fileparse"
)

// Filter is the SMTP ingestion surface. It accepts mail, classifies the
// text content, stamps verdict headers and optionally relays the message
// back to the MTA.
type Filter struct {
	service   *core.ClassifierService
	whitelist *Whitelist
	logger    *zap.Logger
	cfg       config.SMTPConfig
	server    *gosmtp.Server
}

// NewFilter creates a new SMTP content filter.
func NewFilter(service *core.ClassifierService, whitelist *Whitelist, cfg config.SMTPConfig, logger *zap.Logger) *Filter {
	if cfg.SubjectPrefix == "" && cfg.ModifySubject {
		cfg.SubjectPrefix = "[**SPAM**] "
	}
	return &Filter{
		service:   service,
		whitelist: whitelist,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start starts the SMTP server in a background goroutine.
func (f *Filter) Start() error {
	f.server = gosmtp.NewServer(&backend{filter: f})
	f.server.Addr = f.cfg.ListenAddress
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP filter starting", zap.String("address", f.cfg.ListenAddress))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != gosmtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP server.
func (f *Filter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// relay sends the processed message back to the configured MTA.
func (f *Filter) relay(sender string, recipients []string, data []byte) error {
	addr := fmt.Sprintf("%s:%d", f.cfg.RelayAddress, f.cfg.RelayPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := gosmtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			accepted = true
		}
	}
	if !accepted {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

type backend struct {
	filter *Filter
}

func (b *backend) NewSession(_ *gosmtp.Conn) (gosmtp.Session, error) {
	return &session{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

type session struct {
	filter     *Filter
	sender     string
	recipients []string
}

func (s *session) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

func (s *session) AuthPlain(_ []byte) error {
	return gosmtp.ErrAuthUnsupported
}

func (s *session) Mail(from string, _ *gosmtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *session) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the message and forwards it with verdict headers. Content
// that cannot be classified passes through with an error header; errors
// never bounce mail.
func (s *session) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse message", zap.Error(err))
		return err
	}

	senderDomain := "unknown"
	if parts := strings.Split(s.sender, "@"); len(parts) == 2 {
		senderDomain = parts[1]
	}

	if s.filter.whitelist.Contains(s.sender) {
		s.filter.logger.Info("Skipping whitelisted sender",
			zap.String("from", s.sender),
			zap.String("sender_domain", senderDomain))
		return s.forward(rawData, msg, nil, nil)
	}

	textContent, err := fileparse.MessageText(msg)
	if err != nil {
		s.filter.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}

	if subject := fileparse.DecodeHeader(msg.Header.Get("Subject")); subject != "" {
		textContent = "Subject: " + subject + "\n\n" + textContent
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, classifyErr := s.filter.service.Classify(ctx, textContent)
	if classifyErr != nil {
		s.filter.logger.Error("Failed to classify message",
			zap.Error(classifyErr),
			zap.String("sender", s.sender),
			zap.String("sender_domain", senderDomain))
	}

	if classifyErr == nil && result.IsSpam && s.filter.cfg.BlockSpam {
		s.filter.logger.Info("Rejecting spam message",
			zap.String("from", s.sender),
			zap.String("sender_domain", senderDomain),
			zap.Float64("spam_probability", result.SpamProbability))
		return fmt.Errorf("550 Rejected as spam (probability: %.2f)", result.SpamProbability)
	}

	if err := s.forward(rawData, msg, result, classifyErr); err != nil {
		return err
	}

	if classifyErr == nil {
		s.filter.logger.Info("Processed message",
			zap.String("from", s.sender),
			zap.String("sender_domain", senderDomain),
			zap.Bool("is_spam", result.IsSpam),
			zap.Float64("spam_probability", result.SpamProbability),
			zap.String("model_version", result.ModelVersion))
	}
	return nil
}

// forward rebuilds the message with verdict headers prepended and hands it
// to the relay. A nil result means the message passes through unclassified.
func (s *session) forward(rawData []byte, msg *mail.Message, result *core.Classification, classifyErr error) error {
	var out bytes.Buffer

	cfg := s.filter.cfg
	if result != nil {
		fmt.Fprintf(&out, "%s: %t\r\n", cfg.SpamHeader, result.IsSpam)
		fmt.Fprintf(&out, "%s: %.4f\r\n", cfg.ProbabilityHeader, result.SpamProbability)
		fmt.Fprintf(&out, "%s: %.4f\r\n", cfg.ConfidenceHeader, result.Confidence)
	}
	if classifyErr != nil {
		fmt.Fprintf(&out, "X-Spam-Filter-Error: %s\r\n", classifyErr.Error())
	}

	stampSubject := result != nil && result.IsSpam && cfg.ModifySubject && cfg.SubjectPrefix != ""
	if stampSubject {
		subject := fileparse.DecodeHeader(msg.Header.Get("Subject"))
		if !strings.HasPrefix(subject, cfg.SubjectPrefix) {
			fmt.Fprintf(&out, "Subject: %s\r\n", cfg.SubjectPrefix+subject)
		} else {
			stampSubject = false
		}
	}
	for key, values := range msg.Header {
		if stampSubject && strings.EqualFold(key, "Subject") {
			continue
		}
		for _, value := range values {
			fmt.Fprintf(&out, "%s: %s\r\n", key, value)
		}
	}
	fmt.Fprintf(&out, "\r\n")

	// Splice the original body back in untouched so MIME parts and
	// attachments survive.
	bodyStart := bytes.Index(rawData, []byte("\r\n\r\n"))
	if bodyStart != -1 {
		out.Write(rawData[bodyStart+4:])
	} else if bodyStart = bytes.Index(rawData, []byte("\n\n")); bodyStart != -1 {
		out.Write(rawData[bodyStart+2:])
	} else {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			s.filter.logger.Error("Failed to read message body", zap.Error(err))
			return err
		}
		out.Write(body)
	}

	if !cfg.RelayEnabled {
		s.filter.logger.Warn("Relay disabled, dropping processed message; this is likely a misconfiguration")
		return nil
	}
	if err := s.filter.relay(s.sender, s.recipients, out.Bytes()); err != nil {
		s.filter.logger.Error("Failed to relay message",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}
	return nil
}

func (s *session) Logout() error {
	return nil
}
