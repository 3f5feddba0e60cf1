package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

const defaultAPIBase = "https://api.telegram.org"

type Config struct {
	BotToken string
	ChatID   string
	APIBase  string
}

// Service posts owner notifications to a Telegram chat. It is a no-op when
// the bot token or chat id is missing.
type Service struct {
	logger *logrus.Logger
	client *http.Client
	config Config
}

func NewService(config Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if config.APIBase == "" {
		config.APIBase = defaultAPIBase
	}
	config.APIBase = strings.TrimRight(config.APIBase, "/")
	return &Service{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		config: config,
	}
}

func (s *Service) Enabled() bool {
	return s != nil && s.config.BotToken != "" && s.config.ChatID != ""
}

// SendMessage sends an HTML formatted message to the configured chat
func (s *Service) SendMessage(ctx context.Context, message string) error {
	if !s.Enabled() {
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.config.APIBase, s.config.BotToken)
	payload := map[string]interface{}{
		"chat_id":    s.config.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build Telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found - please check your token from @BotFather")
		default:
			return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// NotifyCriticalIssue announces a newly reported critical issue.
func (s *Service) NotifyCriticalIssue(ctx context.Context, issue *models.Issue, appliance *models.Appliance, property *models.Property) error {
	message := fmt.Sprintf(
		"<b>Critical issue reported</b>\n\n"+
			"🏠 %s\n"+
			"🔧 %s (%s)\n"+
			"⚠️ %s\n"+
			"📅 %s",
		html.EscapeString(property.Address),
		html.EscapeString(appliance.Name),
		html.EscapeString(appliance.Location),
		html.EscapeString(issue.Title),
		issue.ReportedDate.String(),
	)
	return s.SendMessage(ctx, message)
}

// NotifyAutoResolved reports issues closed by a completed maintenance record.
func (s *Service) NotifyAutoResolved(ctx context.Context, record *models.MaintenanceRecord, appliance *models.Appliance, resolved int) error {
	if resolved <= 0 {
		return nil
	}
	message := fmt.Sprintf(
		"<b>%d issue(s) resolved</b>\n\n"+
			"🔧 %s\n"+
			"🛠️ %s: %s\n"+
			"📅 %s",
		resolved,
		html.EscapeString(appliance.Name),
		record.MaintenanceType,
		html.EscapeString(record.Description),
		record.MaintenanceDate.String(),
	)
	return s.SendMessage(ctx, message)
}

// NotifyMaintenanceDue sends one digest listing upcoming maintenance.
func (s *Service) NotifyMaintenanceDue(ctx context.Context, due []models.DueMaintenance) error {
	if len(due) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Maintenance due soon (%d)</b>\n", len(due))
	for _, d := range due {
		fmt.Fprintf(&b, "\n📅 %s · %s\n🔧 %s, %s\n",
			d.NextDueDate.String(),
			d.MaintenanceType,
			html.EscapeString(d.ApplianceName),
			html.EscapeString(d.PropertyAddress),
		)
	}
	return s.SendMessage(ctx, b.String())
}
