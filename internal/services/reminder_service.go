package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/justsurfingit/interview-scheduler/internal/models"
)

var (
	ErrNotScheduled      = errors.New("interview has no scheduled time")
	ErrNoRecipient       = errors.New("candidate has no valid email address")
	ErrRemindersDisabled = errors.New("reminders are not configured")
)

// Mailer delivers a plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// GmailMailer sends through the Gmail API as the authorised account.
type GmailMailer struct {
	Service *gmail.Service
	// UserID is the Gmail user the message is sent as; "me" for the token owner.
	UserID string
	Log    *zap.Logger
}

func (m *GmailMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(buildMessage(to, subject, body))}
	return retry(ctx, m.Log, 3, time.Second, func() error {
		_, err := m.Service.Users.Messages.Send(m.UserID, msg).Context(ctx).Do()
		return err
	})
}

func buildMessage(to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("To: " + headerValue(to) + "\r\n")
	b.WriteString("Subject: " + mimeHeader(headerValue(subject)) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// headerValue folds line breaks so user-supplied text such as a job title
// stays on its header line.
func headerValue(s string) string {
	return strings.TrimSpace(headerBreaks.Replace(s))
}

func mimeHeader(s string) string {
	for _, r := range s {
		if r > 127 {
			return "=?UTF-8?B?" + base64.StdEncoding.EncodeToString([]byte(s)) + "?="
		}
	}
	return s
}

type reminderStore interface {
	Get(ctx context.Context, v Viewer, id uint) (*models.Interview, error)
	DueForReminder(ctx context.Context, from, to time.Time) ([]models.Interview, error)
	RecordEvent(ctx context.Context, ev *models.InterviewEvent) error
}

// ReminderService emails candidates ahead of their interviews, either on a
// recruiter's request or from the background sweep.
type ReminderService struct {
	Store    reminderStore
	Mailer   Mailer
	Log      *zap.Logger
	Location *time.Location
	Interval time.Duration
	Lead     time.Duration
	Now      func() time.Time
}

func NewReminderService(store reminderStore, mailer Mailer, log *zap.Logger, loc *time.Location, interval, lead time.Duration) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderService{
		Store:    store,
		Mailer:   mailer,
		Log:      log,
		Location: loc,
		Interval: interval,
		Lead:     lead,
		Now:      time.Now,
	}
}

// SendReminder mails the candidate of one of the recruiter's interviews.
func (s *ReminderService) SendReminder(ctx context.Context, v Viewer, id uint, message string) error {
	if _, ok := v.Role.(models.Recruiter); !ok {
		return ErrForbidden
	}
	if s.Mailer == nil {
		return ErrRemindersDisabled
	}
	iv, err := s.Store.Get(ctx, v, id)
	if err != nil {
		return err
	}
	return s.remind(ctx, *iv, v.UserID, message)
}

// StartWatcher runs the sweep loop in the background.
func (s *ReminderService) StartWatcher(ctx context.Context) {
	go s.Run(ctx)
}

// Run sweeps immediately and then on every Interval until ctx ends.
func (s *ReminderService) Run(ctx context.Context) {
	if s.Mailer == nil {
		s.Log.Warn("reminder watcher disabled (no mailer); check Gmail credentials")
		return
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep reminds every candidate whose interview starts within Lead. It returns
// the number of reminders sent.
func (s *ReminderService) Sweep(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	now := s.now()
	due, err := s.Store.DueForReminder(ctx, now, now.Add(s.Lead))
	if err != nil {
		s.Log.Error("reminder sweep failed", zap.Error(err))
		return 0
	}
	if len(due) == 0 {
		s.Log.Debug("no reminders due")
		return 0
	}

	sent := 0
	for _, iv := range due {
		if err := s.remind(ctx, iv, 0, ""); err != nil {
			s.Log.Warn("reminder not sent", zap.Uint("interview_id", iv.ID), zap.Error(err))
			continue
		}
		sent++
	}
	s.Log.Info("reminder sweep finished", zap.Int("due", len(due)), zap.Int("sent", sent))
	return sent
}

// remind sends one email and appends the outcome to the history. actorID 0
// marks the automatic sweep.
func (s *ReminderService) remind(ctx context.Context, iv models.Interview, actorID uint, message string) error {
	if iv.ScheduledAt == nil {
		return ErrNotScheduled
	}
	addr, err := mail.ParseAddress(iv.Seeker.Email)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrNoRecipient, iv.Seeker.Email)
	}

	subject, body := reminderEmail(iv, s.Location, message)
	sendErr := s.Mailer.Send(ctx, addr.String(), subject, body)

	ev := &models.InterviewEvent{InterviewID: iv.ID, ActorID: actorID, EventType: models.EventReminderSent, Details: "to " + addr.Address}
	if sendErr != nil {
		ev.EventType = models.EventReminderError
		ev.Details = sendErr.Error()
	}
	if err := s.Store.RecordEvent(ctx, ev); err != nil {
		s.Log.Error("failed to record reminder event", zap.Uint("interview_id", iv.ID), zap.Error(err))
	}
	if sendErr != nil {
		return fmt.Errorf("send reminder: %w", sendErr)
	}
	s.Log.Info("reminder sent", zap.Uint("interview_id", iv.ID), zap.String("to", addr.Address))
	return nil
}

func reminderEmail(iv models.Interview, loc *time.Location, message string) (string, string) {
	company := iv.Job.Company.Name
	if company == "" {
		company = "the hiring team"
	}
	title := iv.Job.Title
	subject := fmt.Sprintf("Reminder: %s interview with %s", title, company)
	if title == "" {
		title = "the position"
		subject = "Reminder: interview with " + company
	}
	when := iv.ScheduledAt.In(loc).Format("Mon, 02 Jan 2006 15:04 MST")

	var b strings.Builder
	name := iv.Seeker.Name
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "This is a reminder of your %s interview for %s at %s.\n\n", models.NormalizeType(string(iv.Type)), title, company)
	fmt.Fprintf(&b, "When: %s (%d minutes)\n", when, durationOrDefault(iv.Duration))
	if iv.MeetingLink != "" {
		fmt.Fprintf(&b, "Join: %s\n", iv.MeetingLink)
	}
	if iv.Location != "" {
		fmt.Fprintf(&b, "Where: %s\n", iv.Location)
	}
	if iv.Recruiter.Name != "" {
		fmt.Fprintf(&b, "Interviewer: %s\n", iv.Recruiter.Name)
	}
	if m := strings.TrimSpace(message); m != "" {
		fmt.Fprintf(&b, "\n%s\n", m)
	}
	b.WriteString("\nGood luck!\n")
	return subject, b.String()
}

func durationOrDefault(d int) int {
	if d <= 0 {
		return 60
	}
	return d
}

func (s *ReminderService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// retry executes f with exponential backoff. Client errors other than 429 are
// permanent and returned at once.
func retry(ctx context.Context, log *zap.Logger, attempts int, sleep time.Duration, f func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if isPermanentError(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		if log != nil {
			log.Warn("gmail API error, retrying", zap.Error(err), zap.Duration("backoff", sleep))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		sleep *= 2
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

func isPermanentError(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code >= 400 && gErr.Code < 500 && gErr.Code != 429
	}
	return false
}
